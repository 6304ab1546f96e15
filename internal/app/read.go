package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ResponseTooLargeError reports that a body exceeded the read limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("body exceeded limit of %d bytes", e.Limit)
}

func IsResponseTooLarge(err error) bool {
	var limitErr ResponseTooLargeError
	return errors.As(err, &limitErr)
}

// Read drains and closes reader. A limit <= 0 reads everything.
func Read(reader io.ReadCloser, limit int64) ([]byte, error) {
	defer func() {
		err := reader.Close()
		if err != nil {
			slog.Error(fmt.Sprintf("Error occured: %s", err.Error()))
		}
	}()

	if limit <= 0 {
		return io.ReadAll(reader)
	}

	lr := &io.LimitedReader{R: reader, N: limit + 1}
	content, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}

	return content, nil
}

func ReadJSON[T any](content []byte) (*T, error) {
	var t *T
	err := json.Unmarshal(content, &t)

	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.New("empty json document")
	}

	return t, nil
}
