// Package lextypes defines the data contracts exchanged between lexshell and
// the study backend, plus the small set of shared interfaces used across the
// client.
//
// # Architecture Overview
//
// lexshell follows a layered client architecture:
//
//   - Contract Layer (this package): request/response shapes, the result
//     envelope and UI action enums
//   - Remote Layer: one function per backend endpoint returning a Result
//   - Mutation Layer: stateful, re-invokable wrappers around remote calls
//   - State Layer: the UI action store, conversation transcript and search state
//   - Shell Layer: cobra commands and the interactive REPL
//
// # Package Organization
//
// ## Chat Types (chat_types.go)
//
//   - AIRequest, RequestMessage, ChatContext, ChatConfig: outgoing chat payload
//   - AIResponse, FollowUpQuestion, SmartAction: backend reply
//
// ## Search Types (search_types.go)
//
//   - SearchParams: query plus equality filters, encoded as a query string
//   - SearchResultItem, PastQuestionDetail: search hits and the detail view
//   - SearchFilterMap, FilterOption: facet catalog
//
// ## Result Envelope (result_types.go)
//
//   - Result: uniform wrapper around every remote call
//   - APIError: normalized failure carried inside a Result
//
// ## UI Types (ui_types.go)
//
//   - UIAction: active interface mode (search, chat, none)
//   - UIActionState: snapshot of the process-wide UI store
package lextypes
