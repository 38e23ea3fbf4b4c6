package entity

import "time"

// Token is a single-use credential owned by exactly one operator.
// Invite tokens never expire by time and are consumed on initialization;
// reset tokens are only redeemable within the reset window.
type Token struct {
	ID         int64
	OperatorID int64
	Value      string
	CreatedAt  time.Time
}

// TokenOwner is a token joined with the operator it references,
// returned by token lookup queries.
type TokenOwner struct {
	Token    Token
	Operator Operator
}
