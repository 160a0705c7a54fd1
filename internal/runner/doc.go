// Package runner drives one user turn through a chat model: it appends the
// utterance, calls the model, executes requested tools through the registry
// and repeats until the model answers in text.
//
// Invariant:
//   - an assistant tool-call message is immediately followed by the tool
//     message answering it; ids are copied from the model, never invented.
//
// Flow:
//
//	user(text) -> assistant(tool call) -> tool(result) -> assistant(text)
package runner
