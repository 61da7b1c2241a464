package registry

import "github.com/relaykit/conduit/pkg/models"

// Supervisor tool names. These are the keys the Route table (internal/agent)
// maps to {specialist_id, is_terminal}.
const (
	ToolAskWebSearch     = "ask_web_search"
	ToolAskFileGenerator = "ask_file_generator"
	ToolAskFileModifier  = "ask_file_modifier"
	ToolAskDesign        = "ask_design"
	ToolAskDev           = "ask_dev"
	ToolAskBrowser       = "ask_browser"
	ToolGenerateWebPage  = "generate_web_page"
)

// Agent ids.
const (
	AgentSupervisor    = "supervisor"
	AgentWebSearch     = "web_search"
	AgentFileGenerator = "file_generator"
	AgentFileModifier  = "file_modifier"
	AgentDesign        = "design"
	AgentDev           = "dev"
	AgentWebPage       = "web_page"
	AgentQA            = "qa"
	AgentBuilderUX     = "builder_ux"
	AgentBuilderDev    = "builder_dev"
)

func compiledDefaults(defaultModelID string) map[string]models.AgentConfig {
	return map[string]models.AgentConfig{
		AgentSupervisor: {
			AgentID:      AgentSupervisor,
			DisplayName:  "Supervisor",
			SystemPrompt: "You are the conversational assistant. Decide whether to answer directly or delegate to a specialist tool. Never fabricate a download link; only the tool results carry real links.",
			ModelID:      defaultModelID,
			ModuleLabel:  "core",
			Tools:        supervisorToolSchemas(),
		},
		AgentWebSearch: {
			AgentID:      AgentWebSearch,
			DisplayName:  "Web Search",
			SystemPrompt: "Research the user's question using web_search and web_fetch, then answer concisely, citing sources by URL.",
			ModelID:      defaultModelID,
			ModuleLabel:  "specialist",
			Tools:        webResearchToolSchemas(),
		},
		AgentFileGenerator: {
			AgentID:      AgentFileGenerator,
			DisplayName:  "File Generator",
			SystemPrompt: "Generate the requested document with generate_pdf or generate_excel and report back only a short confirmation plus the returned markdown download link.",
			ModelID:      defaultModelID,
			ModuleLabel:  "specialist",
			Tools:        fileGeneratorToolSchemas(),
		},
		AgentFileModifier: {
			AgentID:      AgentFileModifier,
			DisplayName:  "File Modifier",
			SystemPrompt: "Fetch the referenced file and apply the requested edits with modify_excel, modify_pptx, or modify_pdf, then report back only a short confirmation plus the returned markdown download link.",
			ModelID:      defaultModelID,
			ModuleLabel:  "specialist",
			Tools:        fileModifierToolSchemas(),
		},
		AgentDesign: {
			AgentID:      AgentDesign,
			DisplayName:  "Design",
			SystemPrompt: "Produce a structured design JSON artifact matching the requested layout. Always respond with a JSON object under the key \"design\".",
			ModelID:      defaultModelID,
			ModuleLabel:  "specialist",
			Tools:        []models.ToolSchema{},
		},
		AgentDev: {
			AgentID:      AgentDev,
			DisplayName:  "Dev",
			SystemPrompt: "Write or modify code as requested; use execute_python to validate snippets when useful.",
			ModelID:      defaultModelID,
			ModuleLabel:  "specialist",
			Tools:        devToolSchemas(),
		},
		AgentWebPage: {
			AgentID:      AgentWebPage,
			DisplayName:  "Web Page",
			SystemPrompt: "Generate a complete, self-contained HTML landing page for the user's request. Respond with the raw HTML only, no commentary and no code fencing.",
			ModelID:      defaultModelID,
			ModuleLabel:  "terminal",
			Tools:        []models.ToolSchema{},
		},
		AgentQA: {
			AgentID:      AgentQA,
			DisplayName:  "QA Reviewer",
			SystemPrompt: "Respond with strict JSON only, no code fencing: {\"approved\": bool, \"issues\": [string], \"correction_instruction\": string}.",
			ModelID:      defaultModelID,
			ModuleLabel:  "qa",
			Tools:        []models.ToolSchema{},
		},
		AgentBuilderUX: {
			AgentID:      AgentBuilderUX,
			DisplayName:  "Builder UX",
			SystemPrompt: "Produce or edit a page AST. Respond with JSON under the key \"ast_actions\". Use web_search and web_fetch only to ground copy or reference content; never fabricate an artifact link yourself.",
			ModelID:      defaultModelID,
			ModuleLabel:  "builder",
			Tools:        webResearchToolSchemas(),
		},
		AgentBuilderDev: {
			AgentID:      AgentBuilderDev,
			DisplayName:  "Builder Dev",
			SystemPrompt: "Produce or edit project files. Respond with JSON under the key \"actions\". Use web_search and web_fetch only to ground copy or reference content.",
			ModelID:      defaultModelID,
			ModuleLabel:  "builder",
			Tools:        webResearchToolSchemas(),
		},
	}
}

// webResearchToolSchemas mirrors internal/tools/websearch's web_search and
// web_fetch Schema() methods. Registry cannot import the tools packages
// directly — they import this agent's ToolRegistry type, and importing
// them back here would cycle — so the externalized shape is restated, the
// same way supervisorToolSchemas restates the routing tools' shape.
func webResearchToolSchemas() []models.ToolSchema {
	return []models.ToolSchema{
		{Name: "web_search", Description: "Search the web and return a ranked list of results.", Params: map[string]models.ToolParam{
			"query": {Type: "string", Description: "the search query", Required: true},
		}, ParamOrder: []string{"query"}},
		{Name: "web_fetch", Description: "Fetch a URL and return its readable title and body text.", Params: map[string]models.ToolParam{
			"url": {Type: "string", Description: "the URL to fetch", Required: true},
		}, ParamOrder: []string{"url"}},
	}
}

// fileGeneratorToolSchemas mirrors internal/tools/documents' generate_pdf and
// generate_excel schemas.
func fileGeneratorToolSchemas() []models.ToolSchema {
	return []models.ToolSchema{
		{Name: "generate_pdf", Description: "Generate a PDF document and upload it, returning a download link.", Params: map[string]models.ToolParam{
			"title":    {Type: "string", Description: "document title", Required: true},
			"sections": {Type: "array", Description: "ordered list of {heading, body} sections", Required: true},
		}, ParamOrder: []string{"title", "sections"}},
		{Name: "generate_excel", Description: "Generate a spreadsheet and upload it, returning a download link.", Params: map[string]models.ToolParam{
			"title":   {Type: "string", Description: "spreadsheet title, used as the filename", Required: true},
			"headers": {Type: "array", Description: "column headers", Required: true},
			"rows":    {Type: "array", Description: "data rows, one array of strings per row", Required: true},
		}, ParamOrder: []string{"title", "headers", "rows"}},
	}
}

// fileModifierToolSchemas mirrors internal/tools/fileops' fetch_file_content,
// modify_excel, modify_pdf and modify_pptx schemas.
func fileModifierToolSchemas() []models.ToolSchema {
	return []models.ToolSchema{
		{Name: "fetch_file_content", Description: "Fetch a previously generated artifact and return a bounded summary of its structure for inspection.", Params: map[string]models.ToolParam{
			"url": {Type: "string", Description: "artifact URL", Required: true},
		}, ParamOrder: []string{"url"}},
		{Name: "modify_excel", Description: "Apply cell updates or appended rows to an existing spreadsheet.", Params: map[string]models.ToolParam{
			"file_url":     {Type: "string", Description: "URL of the existing spreadsheet", Required: true},
			"sheet":        {Type: "string", Description: "target sheet name", Required: false},
			"cell_updates": {Type: "object", Description: "cell reference -> new value", Required: false},
			"append_rows":  {Type: "array", Description: "rows to append, one array of strings per row", Required: false},
		}, ParamOrder: []string{"file_url", "sheet", "cell_updates", "append_rows"}},
		{Name: "modify_pdf", Description: "Stamp a note listing text replacements on every page of an existing PDF, or append a page to it.", Params: map[string]models.ToolParam{
			"file_url":     {Type: "string", Description: "URL of the existing PDF", Required: true},
			"replacements": {Type: "object", Description: "literal text -> replacement text, listed in a note stamped on every page; the original text is left unchanged", Required: false},
			"append_text":  {Type: "string", Description: "text for a new trailing page", Required: false},
		}, ParamOrder: []string{"file_url", "replacements", "append_text"}},
		{Name: "modify_pptx", Description: "Apply text replacements to an existing PowerPoint deck.", Params: map[string]models.ToolParam{
			"file_url":     {Type: "string", Description: "URL of the existing .pptx", Required: true},
			"replacements": {Type: "object", Description: "literal text -> replacement text", Required: true},
		}, ParamOrder: []string{"file_url", "replacements"}},
	}
}

// devToolSchemas mirrors internal/tools/sandbox's execute_python schema.
func devToolSchemas() []models.ToolSchema {
	return []models.ToolSchema{
		{Name: "execute_python", Description: "Run Python source in a sandboxed workspace and return stdout/stderr.", Params: map[string]models.ToolParam{
			"code": {Type: "string", Description: "Python source to run", Required: true},
		}, ParamOrder: []string{"code"}},
	}
}

func supervisorToolSchemas() []models.ToolSchema {
	return []models.ToolSchema{
		{Name: ToolAskWebSearch, Description: "Delegate a research question to the web search specialist.", Params: map[string]models.ToolParam{
			"query": {Type: "string", Description: "the question to research", Required: true},
		}, ParamOrder: []string{"query"}},
		{Name: ToolAskFileGenerator, Description: "Delegate document generation to the file generator specialist.", Params: map[string]models.ToolParam{
			"intent": {Type: "string", Description: "what document to produce and with what content", Required: true},
		}, ParamOrder: []string{"intent"}},
		{Name: ToolAskFileModifier, Description: "Delegate editing an existing document to the file modifier specialist.", Params: map[string]models.ToolParam{
			"file_url":     {Type: "string", Description: "URL of the document to edit", Required: true},
			"instructions": {Type: "string", Description: "what edits to apply", Required: true},
		}, ParamOrder: []string{"file_url", "instructions"}},
		{Name: ToolAskDesign, Description: "Delegate producing a design artifact to the design specialist.", Params: map[string]models.ToolParam{
			"intent": {Type: "string", Description: "what to design", Required: true},
		}, ParamOrder: []string{"intent"}},
		{Name: ToolAskDev, Description: "Delegate a coding task to the dev specialist.", Params: map[string]models.ToolParam{
			"intent": {Type: "string", Description: "what to build or fix", Required: true},
		}, ParamOrder: []string{"intent"}},
		{Name: ToolAskBrowser, Description: "Drive a headless browser against a URL.", Params: map[string]models.ToolParam{
			"url":     {Type: "string", Description: "page to visit", Required: true},
			"actions": {Type: "array", Description: "ordered browser actions", Required: false},
		}, ParamOrder: []string{"url", "actions"}},
		{Name: ToolGenerateWebPage, Description: "Stream a generated landing page directly to the client (terminal).", Params: map[string]models.ToolParam{
			"intent": {Type: "string", Description: "what page to generate", Required: true},
		}, ParamOrder: []string{"intent"}},
	}
}
