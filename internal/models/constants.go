package models

const (
	DefaultChunkSize          = 1000 // tokens
	DefaultChunkOverlap       = 200  // tokens
	DefaultRelevanceThreshold = 0.1
	DefaultTopK               = 5
	DefaultMaxCitations       = 5
	DefaultCitationLength     = 200 // characters
	DefaultPreviewLength      = 500 // characters
	DefaultMaxTokens          = 1000
	DefaultTemperature        = 0.1

	StatusProcessed  = "processed"
	CitationEllipsis = "..."

	MetadataKeyDocumentID = "document_id"
	MetadataKeyPageNumber = "page_number"
	MetadataKeyChunkIndex = "chunk_index"
	MetadataKeyPreview    = "content"

	NoResultsAnswer     = "No relevant information found in the document for your question."
	QuotaFallbackAnswer = "Based on the document content, I found relevant information about your question. " +
		"However, I'm currently unable to generate a detailed AI response due to API quota limitations. " +
		"Please check the citations below for the relevant document sections that contain information about your query."
	GenerationErrorPrefix = "Error generating answer: "
)

var (
	SystemPrompt = `You are a legal document analysis assistant specializing in insurance policies.
Your task is to answer questions based on the provided insurance policy document excerpts.

Guidelines:
1. Provide accurate, specific answers based only on the provided document content
2. If the answer is not found in the document, clearly state this
3. Be precise and professional in your responses
4. Focus on the most relevant information from the document
5. Use legal terminology appropriately when found in the document`

	UserPromptTemplate = `Based on the following insurance policy document excerpts, please answer this question: %s

Document excerpts:
%s

Please provide a comprehensive answer with specific details from the document.`
)
