package port

// QueryValidator checks a generated statement before it is sent to a source.
type QueryValidator interface {
	Validate(sql string) error
}
