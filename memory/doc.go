// Package memory holds the conversation model and session-scoped storage.
//
// Persistence model:
//   - A Conversation is owned by one session; nothing is shared process-wide.
//   - The memory backend keeps nothing across restarts. Redis and file
//     backends are opt-in.
//   - Tool calls and results are stored with the turn so pairs survive a reload.
package memory
