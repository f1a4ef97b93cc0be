package errors

import "errors"

// ErrorDump collects the typed code plus the unwrap chain for structured logs.
type ErrorDump struct {
	Code       string
	TopMessage string
	Chain      []string
}

// Dump walks the error chain so handlers can log every layer at once.
func Dump(err error) ErrorDump {
	dump := ErrorDump{}
	if err == nil {
		return dump
	}
	dump.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		dump.Code = string(typed.Code())
	}
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		dump.Chain = append(dump.Chain, cur.Error())
	}
	return dump
}
