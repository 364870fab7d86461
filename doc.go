// Package routa provides a multi-agent coordination runtime.
//
// Routa coordinates three agent roles over a shared workspace: ROUTA plans
// a request into discrete task blocks, CRAFTER agents implement each task
// through a text-based tool protocol, and GATE reviews the outputs and
// issues an APPROVED or REJECTED verdict.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/routa-ai/routa/cmd/routa@latest
//
// Define the model to use in ~/.config/routa/models.yaml:
//
//	active: work
//	configs:
//	  - name: work
//	    provider: COPILOT
//	    model: gpt-4.1
//
// Run a request:
//
//	routa run "add a retry helper to the http client" --cwd ./project
//
// Or start the agent-to-agent server:
//
//	routa serve --port 8080
//
// # Using as Go Library
//
// Import specific packages:
//
//	import (
//	    "github.com/routa-ai/routa/pkg/coordination"
//	    "github.com/routa-ai/routa/pkg/orchestrator"
//	    "github.com/routa-ai/routa/pkg/llms"
//	)
//
// The coordination package holds the store, event bus and shared types.
// The orchestrator package drives the plan, craft and verify phases.
// The llms package selects and talks to model providers, including GitHub
// Copilot token exchange.
package routa
