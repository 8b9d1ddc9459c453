package varyproxy

import (
	"bytes"
	"io"
	"net/http"

	serializer "github.com/varyproxy/varyproxy/pkg/response-serializer"
)

// responseToStoredBytes serializes a fetched Object to the HTTP/1.1
// wire bytes the SQLite-backed Storage persists, reusing the request
// and response wire format always-cache stored entries in.
func responseToStoredBytes(obj *CachedObject, req *http.Request) ([]byte, error) {
	res := &http.Response{
		StatusCode:    obj.Status,
		Header:        obj.Header,
		Body:          io.NopCloser(bytes.NewReader(obj.Body)),
		Request:       req,
		ContentLength: int64(len(obj.Body)),
	}
	return serializer.StoredResponseToBytes(serializer.TimedResponse{
		Response:     res,
		RequestTime:  obj.LastModified,
		ResponseTime: obj.LastModified,
	})
}
