package mention

import "errors"

// ErrNoActiveToken is returned by Accept when no @token is under the caret.
var ErrNoActiveToken = errors.New("no active mention token")
