package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// LookupKey builds the cache key for a remote lookup, e.g. ("kegg", "conv", "Q9HV14").
func LookupKey(service string, parts ...string) string {
	return fmt.Sprintf("lookup:%s:%s", service, HashString(strings.Join(parts, "\x00")))
}
