package handler

type ContextKey string

var (
	UserCtxKey   ContextKey = "user"
	ResumeCtxKey ContextKey = "resume"
)
