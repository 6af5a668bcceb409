package auth

// Known OAuth scopes used by the plan-reasoning service.
const (
	ScopeAssessmentsWrite = "assessments:write"
	ScopeAssessmentsRead  = "assessments:read"
)
