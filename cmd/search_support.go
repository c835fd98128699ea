package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yskale/dug/internal/search"
)

func conceptQueryFromFlags(cmd *cobra.Command, size *int) search.ConceptQuery {
	req := search.ConceptQuery{
		Query:  searchQuery,
		Offset: searchOffset,
		Size:   size,
	}
	// Only an explicitly passed --types flag activates the post filter.
	if cmd.Flags().Changed("types") {
		req.Types = searchTypes
	}
	return req
}

func variableQueryFromFlags(size *int) search.VariableQuery {
	return search.VariableQuery{
		Concept:  searchConcept,
		Query:    searchQuery,
		DataType: searchDataType,
		Offset:   searchOffset,
		Size:     size,
	}
}

func kgQueryFromFlags(size *int) search.KGQuery {
	return search.KGQuery{
		UniqueID: searchUniqueID,
		Query:    searchQuery,
		Offset:   searchOffset,
		Size:     size,
	}
}

func studyQueryFromFlags(size *int) search.StudyQuery {
	return search.StudyQuery{
		StudyID:   searchStudyID,
		StudyName: searchStudyName,
		Offset:    searchOffset,
		Size:      size,
	}
}

func programQueryFromFlags(size *int) search.ProgramQuery {
	return search.ProgramQuery{
		ProgramName: searchProgramName,
		Offset:      searchOffset,
		Size:        size,
	}
}
