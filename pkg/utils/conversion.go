package utils

import (
	"database/sql"
	"strings"
	"time"
)

// NullableString converts sql.NullString to *string
func NullableString(ns sql.NullString) *string {
	if ns.Valid {
		s := ns.String
		return &s
	}
	return nil
}

// NullableTime converts sql.NullTime to *time.Time
func NullableTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

// StringOrEmpty dereferences a *string, returning "" for nil
func StringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// SplitCSV splits a comma-separated value into trimmed non-empty parts.
// Used for the escalated_rule_ids marker column on work orders.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinCSV joins parts into a comma-separated value
func JoinCSV(parts []string) string {
	return strings.Join(parts, ",")
}

// ContainsString reports whether list contains s
func ContainsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
