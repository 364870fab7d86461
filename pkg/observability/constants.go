package observability

const (
	AttrAgentID     = "agent.id"
	AttrAgentRole   = "agent.role"
	AttrWorkspaceID = "workspace.id"
	AttrTaskID      = "task.id"
	AttrToolName    = "tool.name"
	AttrLLMModel    = "llm.model"
	AttrPhase       = "orchestrator.phase"
	AttrErrorType   = "error.type"

	SpanToolExecution   = "agent.tool_execution"
	SpanLLMRequest      = "agent.llm_request"
	SpanAgentLoop       = "agent.loop"
	SpanOrchestratorRun = "orchestrator.run"
	SpanPhase           = "orchestrator.phase"

	DefaultServiceName = "routa"
)
