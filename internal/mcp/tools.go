package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-model/internal/descriptions"
)

const pathDescription = "Path of the PDF file, relative to the configured directory or absolute. " +
	"Defaults to the active document"

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_open_document",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_open_document")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the PDF file, relative to the configured directory or absolute"),
		),
	), s.handleOpenDocument)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_convert",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_convert")),
		mcp.WithString("path", mcp.Description(pathDescription)),
	), s.handleConvert)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_dump_xml",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_dump_xml")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("path", mcp.Description(pathDescription)),
	), s.handleDumpXML)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_get_page",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_get_page")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Min(1),
			mcp.Description("Page id, starting at 1"),
		),
		mcp.WithString("path", mcp.Description(pathDescription)),
	), s.handleGetPage)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_get_input_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_get_input_fields")),
		mcp.WithString("path",
			mcp.Description("Path of the PDF file. When empty the cached fields of the active document are returned"),
		),
		mcp.WithBoolean("replace_none_value",
			mcp.DefaultBool(false),
			mcp.Description("Use the field name as value of fields without one"),
		),
	), s.handleGetInputFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_set_field_value",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_set_field_value")),
		mcp.WithString("field_name",
			mcp.Required(),
			mcp.Description("Qualified field name, or a label shared by no other field"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("New field value"),
		),
		mcp.WithBoolean("save",
			mcp.DefaultBool(false),
			mcp.Description("Rewrite the active document with the cached values afterwards"),
		),
	), s.handleSetFieldValue)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_update_field_values",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_update_field_values")),
		mcp.WithString("source", mcp.Description(pathDescription)),
		mcp.WithString("target",
			mcp.Description("File to write, inside the configured directory. Defaults to the source document"),
		),
		mcp.WithObject("values",
			mcp.AdditionalProperties(map[string]any{"type": "string"}),
			mcp.Description("Field names mapped to values. Defaults to the cached fields of the active document"),
		),
	), s.handleUpdateFieldValues)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_close_all",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_close_all")),
	), s.handleCloseAll)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_list_documents",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_list_documents")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query", mcp.Description("Words to match against file names")),
		mcp.WithNumber("limit",
			mcp.Min(0),
			mcp.Description("Maximum number of results, 0 for no limit"),
		),
	), s.handleListDocuments)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_get_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_get_info")),
		mcp.WithString("path", mcp.Description(pathDescription)),
	), s.handleGetInfo)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleServerInfo)
}
