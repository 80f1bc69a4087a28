// Package model defines the normalized inference backend contract: a request
// carrying system instructions, the windowed message sequence and the tool
// schema set, and a response carrying either assistant text or tool calls.
// Provider adapters translate this contract into vendor formats so the engine
// never branches per provider. Subpackages:
//
//   - ollama: local Ollama daemon with startup preflight checks
//   - openai: OpenAI Chat Completions via the official SDK
//   - anthropic: Anthropic Messages via the official SDK
package model
