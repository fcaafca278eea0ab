// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package filename turns user-supplied upload names into object keys that
// are safe for any S3-compatible store.
package filename

import (
	"crypto/rand"
	"math/big"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// unsafe matches anything outside letters, digits, dot and hyphen.
	unsafe = regexp.MustCompile(`[^A-Za-z0-9.-]`)
	// trailingExt matches the last extension, dot included.
	trailingExt = regexp.MustCompile(`\.[^/.]+$`)
)

// RandomIDLen is the length of the random component of an object key.
const RandomIDLen = 6

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Sanitize replaces every character outside [A-Za-z0-9.-] with "_".
// Example: "my photo (1).JPG" → "my_photo__1_.JPG"
func Sanitize(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return unsafe.ReplaceAllString(base, "_")
}

// Split returns the sanitised name without its extension and the
// lower-cased extension without the dot. A name without an extension
// yields an empty ext.
func Split(name string) (base, ext string) {
	clean := Sanitize(name)
	loc := trailingExt.FindStringIndex(clean)
	if loc == nil || loc[0] == 0 {
		return clean, ""
	}
	return clean[:loc[0]], strings.ToLower(clean[loc[0]+1:])
}

// RandomID returns RandomIDLen lower-case base-36 characters.
func RandomID() string {
	var b strings.Builder
	radix := big.NewInt(int64(len(base36)))
	for range RandomIDLen {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String()
}

// ObjectKey builds "<prefix>/<unix-ms>-<id>-<base>.<ext>". When the upload
// name has no extension, fallbackExt is used instead.
func ObjectKey(prefix, name, fallbackExt string, now time.Time, id string) string {
	base, ext := Split(name)
	if ext == "" {
		ext = fallbackExt
	}
	if base == "" {
		base = "file"
	}

	key := strconv.FormatInt(now.UnixMilli(), 10) + "-" + id + "-" + base
	if ext != "" {
		key += "." + ext
	}
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}
