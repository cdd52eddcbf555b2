package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for book documents.
//
// Title and author get English analysis for stemmed full-text matching;
// genre is a keyword field so filters match exactly ("Science Fiction"
// never bleeds into "Fiction"); price and created_at are numeric for
// range queries and recency sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = en.AnalyzerName
	authorField.Store = true
	authorField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("author", authorField)

	genreField := bleve.NewTextFieldMapping()
	genreField.Analyzer = keyword.Name
	genreField.Store = true
	docMapping.AddFieldMappingsAt("genre", genreField)

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	idField.Store = true
	docMapping.AddFieldMappingsAt("id", idField)

	inStockField := bleve.NewBooleanFieldMapping()
	inStockField.Store = true
	docMapping.AddFieldMappingsAt("in_stock", inStockField)

	priceField := bleve.NewNumericFieldMapping()
	priceField.Store = true
	docMapping.AddFieldMappingsAt("price", priceField)

	createdAtField := bleve.NewNumericFieldMapping()
	createdAtField.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
