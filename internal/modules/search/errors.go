package search

import "errors"

var ErrNoFiles = errors.New("no files found for this user, please upload files first")
