package model

import "time"

// CodeSession is one persisted question/answer exchange with the assistant.
//
// Sessions are immutable once written: they are created after a successful
// completion call, read back as history, and deleted — never updated.
// Every session belongs to exactly one user, and all queries against
// sessions are scoped by UserID, not just by session ID.
type CodeSession struct {
	ID          string    `json:"id"           db:"id"`
	UserID      string    `json:"userId"       db:"user_id"`
	Query       string    `json:"query"        db:"query"`
	CodeContext string    `json:"codeContext"  db:"code_context"`
	Response    string    `json:"response"     db:"response"`
	Language    string    `json:"language"     db:"language"`
	TokensUsed  int       `json:"tokensUsed"   db:"tokens_used"`
	CreatedAt   time.Time `json:"createdAt"    db:"created_at"`
}
