package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Document session
	PDFOpenDocumentDescription = `Make a PDF document the active document of the session.

**When to use:** Before working with a document through tools that take an optional path, or to switch from one document to another.

**Why it's useful:** Every later call without a path works on the active document, and cached results (content model, input fields) are kept until the active document changes.

**Examples:**
• Start working on a form: "Open tax-form-2024.pdf so its fields can be filled"
• Switch documents: "Open invoice-002.pdf after finishing invoice-001.pdf"

**Common workflows:**
1. Form filling: Open → pdf_get_input_fields → pdf_set_field_value → pdf_update_field_values
2. Content review: Open → pdf_convert → pdf_get_page for the pages of interest

**Best practices:** Paths are resolved inside the configured directory. Opening a different document discards the cached model and fields of the previous one.`

	PDFConvertDescription = `Build the content model of a PDF document: pages with their text boxes and figures.

**When to use:** Need the layout of a document (where text sits on the page, which figures and images it contains) rather than a flat text dump.

**Why it's useful:** Text is grouped into text boxes with normalized bounding boxes, figures keep their names and image details, and the model is cached for later page queries and XML dumps.

**Examples:**
• Layout overview: "Convert report.pdf and list how many text boxes each page has"
• Find figures: "Convert brochure.pdf and show which pages contain images"

**Common workflows:**
1. Structured reading: pdf_convert → pdf_get_page for each page → summarize
2. Export: pdf_convert → pdf_dump_xml → store the XML next to the document

**Best practices:** Conversion is done once per document. Later calls reuse the cached model until another document is opened.`

	PDFDumpXMLDescription = `Return the XML rendering of the document's layout tree.

**When to use:** Need a complete, machine-readable rendering of every layout element (text boxes, lines, characters, figures, images, curves, rectangles) with coordinates and fonts.

**Why it's useful:** The XML keeps details the content model leaves out, such as individual characters, font sizes and graphics, which makes it suitable for downstream parsers and diffing.

**Examples:**
• Archive layout: "Dump the XML of contract.pdf for later comparison"
• Debug extraction: "Dump the XML of page-heavy.pdf to see why two paragraphs were merged"

**Best practices:** The document is converted first when no model is cached. The encoding declared in the XML header follows the configured codec.`

	PDFGetPageDescription = `Return the text boxes and figures of one page of the content model.

**When to use:** Need the content of a specific page with positions, without transferring the whole document.

**Why it's useful:** Each text box comes with its text and bounding box, each figure with its name and image details, so page regions can be inspected individually.

**Examples:**
• Read a cover page: "Get page 1 of annual-report.pdf"
• Locate a signature block: "Get page 4 of agreement.pdf and find the text box containing 'Signature'"

**Best practices:** Page ids start at 1. The document is converted on first use.`

	// Forms
	PDFGetInputFieldsDescription = `Extract the AcroForm input fields of a PDF document as a name to value mapping.

**When to use:** Need to read the values of a fillable form, or to discover which fields a form offers before filling it.

**Why it's useful:** Every terminal field is reported with its fully qualified name, label, current value and normalized rectangle, decoded from PDF text strings.

**Examples:**
• Read a filled form: "Get the input fields of application.pdf"
• Prepare filling: "List the fields of blank-form.pdf so the user can supply values"

**Common workflows:**
1. Form review: pdf_get_input_fields → report values
2. Form filling: pdf_get_input_fields → pdf_set_field_value (per field) → pdf_update_field_values

**Best practices:** Without a path the cached fields of the active document are returned. Set replace_none_value to use the field name as value of fields without one.`

	PDFSetFieldValueDescription = `Set the value of one input field of the active document.

**When to use:** Filling a form field by field, optionally saving after each change.

**Why it's useful:** Fields can be addressed by their qualified name or by their label, and ambiguous labels are rejected instead of guessed.

**Examples:**
• Fill a name: "Set first_name to Alice"
• Fill by label: "Set the field labelled 'City' to Zürich and save"

**Best practices:** The field cache is loaded on demand. With save set the active document is rewritten in place with the cached values.`

	PDFUpdateFieldValuesDescription = `Write field values into a PDF document and save it.

**When to use:** Persisting a filled form, either in place or as a new file.

**Why it's useful:** Values are written to every field and widget annotation that carries the field name, and the form is marked so viewers regenerate the field appearances.

**Examples:**
• Save a copy: "Write the filled values of form.pdf to form-filled.pdf"
• Bulk fill: "Update form.pdf with {\"first_name\": \"Alice\", \"city\": \"Paris\"}"

**Best practices:** Without values the cached fields of the active document are written. The target defaults to the active document and must lie inside the configured directory.`

	// Housekeeping
	PDFCloseAllDescription = `Close every open document and reset the session.

**When to use:** At the end of a workflow, or before documents are replaced on disk.

**Why it's useful:** Releases file handles and discards the cached content model and fields.`

	PDFListDocumentsDescription = `List the PDF documents of the configured directory with optional name matching.

**When to use:** Discovering which documents are available before opening one.

**Why it's useful:** Walks the directory tree (hidden directories skipped), matches file names against the query word by word, and reports sizes and modification times.

**Examples:**
• Find forms: "List documents matching 'tax form'"
• Inventory: "List all documents"`

	PDFGetInfoDescription = `Get file statistics and document metadata of a PDF.

**When to use:** Need page count, size, title, author, producer, or whether the document is encrypted or has input fields.

**Why it's useful:** Reads the document information dictionary without converting the document.`

	PDFServerInfoDescription = `Get server information, available tools, directory contents, and usage guidance.

**When to use:** At the start of a session to learn what the server can do and which documents are available.

**Why it's useful:** Reports the configured directory, size limit and codec together with a guide to the tool workflow.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_open_document":       PDFOpenDocumentDescription,
	"pdf_convert":             PDFConvertDescription,
	"pdf_dump_xml":            PDFDumpXMLDescription,
	"pdf_get_page":            PDFGetPageDescription,
	"pdf_get_input_fields":    PDFGetInputFieldsDescription,
	"pdf_set_field_value":     PDFSetFieldValueDescription,
	"pdf_update_field_values": PDFUpdateFieldValuesDescription,
	"pdf_close_all":           PDFCloseAllDescription,
	"pdf_list_documents":      PDFListDocumentsDescription,
	"pdf_get_info":            PDFGetInfoDescription,
	"pdf_server_info":         PDFServerInfoDescription,
}

// ToolInfo summarizes one tool for server information output
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

var toolUsage = []ToolInfo{
	{
		Name:       "pdf_open_document",
		Usage:      "Use this tool to select the document later calls work on.",
		Parameters: "path (required): path of the PDF file, relative to the configured directory or absolute",
	},
	{
		Name:       "pdf_convert",
		Usage:      "Use this tool to build the content model and get a per-page overview.",
		Parameters: "path (optional): document to open first, defaults to the active document",
	},
	{
		Name:       "pdf_dump_xml",
		Usage:      "Use this tool to get the full XML rendering of the layout tree.",
		Parameters: "path (optional): document to open first, defaults to the active document",
	},
	{
		Name:       "pdf_get_page",
		Usage:      "Use this tool to get the text boxes and figures of one page.",
		Parameters: "page (required): page id starting at 1, path (optional): document to open first",
	},
	{
		Name:  "pdf_get_input_fields",
		Usage: "Use this tool to read the form fields of a document.",
		Parameters: "path (optional): document to read, cached fields of the active document when empty, " +
			"replace_none_value (optional): use the field name as value of fields without one",
	},
	{
		Name:  "pdf_set_field_value",
		Usage: "Use this tool to fill one field of the active document by name or label.",
		Parameters: "field_name (required): qualified name or label, value (required): new value, " +
			"save (optional): rewrite the active document afterwards",
	},
	{
		Name:  "pdf_update_field_values",
		Usage: "Use this tool to save field values into a document.",
		Parameters: "source (optional): document to read, target (optional): file to write, " +
			"values (optional): JSON object of field names to values",
	},
	{
		Name:       "pdf_close_all",
		Usage:      "Use this tool to close every document and reset cached state.",
		Parameters: "No parameters required",
	},
	{
		Name:       "pdf_list_documents",
		Usage:      "Use this tool to find documents in the configured directory.",
		Parameters: "query (optional): words to match against file names, limit (optional): maximum number of results",
	},
	{
		Name:       "pdf_get_info",
		Usage:      "Use this tool to get page count, size and metadata of a document.",
		Parameters: "path (optional): document to open first, defaults to the active document",
	},
	{
		Name:       "pdf_server_info",
		Usage:      "Use this tool to get server configuration and available capabilities.",
		Parameters: "No parameters required",
	},
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the sorted names of all available tools
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns usage information of every tool in registration order
func Tools() []ToolInfo {
	tools := make([]ToolInfo, len(toolUsage))
	for i, tool := range toolUsage {
		tool.Description = GetToolDescription(tool.Name)
		tools[i] = tool
	}
	return tools
}
