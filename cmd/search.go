package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	searchDomain      string
	searchQuery       string
	searchConcept     string
	searchDataType    string
	searchTypes       []string
	searchUniqueID    string
	searchStudyID     string
	searchStudyName   string
	searchProgramName string
	searchOffset      int
	searchSize        int
	searchUnscored    bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a search against one of the dug domains",
	Long: `Run a search against the concepts, variables, kg, studies or programs
domain and print the JSON result.`,
	RunE: runSearch,
}

func init() {
	flags := searchCmd.Flags()
	flags.StringVar(&searchDomain, "domain", "concepts", "search domain: concepts, variables, kg, studies, programs")
	flags.StringVarP(&searchQuery, "query", "q", "", "free-text query")
	flags.StringVar(&searchConcept, "concept", "", "concept scope for variable search")
	flags.StringVar(&searchDataType, "data-type", "", "data type filter for variable search")
	flags.StringSliceVar(&searchTypes, "types", nil, "concept type filter")
	flags.StringVar(&searchUniqueID, "unique-id", "", "entity scope for knowledge graph search")
	flags.StringVar(&searchStudyID, "study-id", "", "study id for study search")
	flags.StringVar(&searchStudyName, "study-name", "", "study name for study search")
	flags.StringVar(&searchProgramName, "program-name", "", "program name for program search")
	flags.IntVar(&searchOffset, "offset", 0, "result offset")
	flags.IntVar(&searchSize, "size", 0, "page size (omit for the engine default)")
	flags.BoolVar(&searchUnscored, "unscored", false, "scan all variable matches without scores")
}

// explicitSize keeps an unset --size flag distinct from an explicit zero.
func explicitSize(flags *pflag.FlagSet) *int {
	if !flags.Changed("size") {
		return nil
	}
	return &searchSize
}

func runSearch(cmd *cobra.Command, args []string) error {
	service, _, err := newService()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	size := explicitSize(cmd.Flags())

	var result interface{}
	switch searchDomain {
	case "concepts":
		result, err = service.SearchConcepts(ctx, conceptQueryFromFlags(cmd, size))
	case "variables":
		req := variableQueryFromFlags(size)
		if searchUnscored {
			result, err = service.SearchVariablesUnscored(ctx, req)
		} else {
			result, err = service.SearchVariables(ctx, req)
		}
	case "kg":
		result, err = service.SearchKG(ctx, kgQueryFromFlags(size))
	case "studies":
		result, err = service.SearchStudies(ctx, studyQueryFromFlags(size))
	case "programs":
		result, err = service.SearchPrograms(ctx, programQueryFromFlags(size))
	default:
		return fmt.Errorf("unknown search domain %q", searchDomain)
	}
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
