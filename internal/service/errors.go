package service

import "errors"

var ErrHandoffFailed = errors.New("handoff delivery failed")
