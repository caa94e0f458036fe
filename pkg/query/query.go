// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-style URL query parameters.
package query

import "strings"

// StringSlice splits a comma-separated query value into trimmed, non-empty parts.
//
// Example:
//
//	StringSlice("active, suspended,") // ["active", "suspended"]
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
