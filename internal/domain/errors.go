package domain

import "errors"

var (
	// ErrConfigIncomplete means the account has no usable token or page ID.
	ErrConfigIncomplete = errors.New("account configuration incomplete")
	// ErrInvalidInterval means the requested posting interval is below the minimum.
	ErrInvalidInterval = errors.New("invalid posting interval")
	// ErrUserNotFound means no account row exists for the chat ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrGenerationFailed means the language model returned no usable text.
	ErrGenerationFailed = errors.New("message generation failed")
	// ErrPublishInFlight means a publish for the account is already running.
	ErrPublishInFlight = errors.New("publish already in progress")
	// ErrPublishFailed means the Graph API rejected the post.
	ErrPublishFailed = errors.New("publish failed")
)
