package backend

import (
	"context"
	"net/http"
)

// Functions returns a client for the serverless functions endpoint.
func (c *Client) Functions() *FunctionsClient {
	return &FunctionsClient{client: c}
}

// FunctionsClient invokes provider-hosted functions by name.
type FunctionsClient struct {
	client *Client
}

// Invoke calls the function with a JSON body. A nil body sends "{}".
func (f *FunctionsClient) Invoke(ctx context.Context, name string, body any) (*Response, error) {
	if body == nil {
		body = struct{}{}
	}
	req, err := f.client.newRequest(ctx, http.MethodPost, "/functions/v1/"+name, body)
	if err != nil {
		return nil, err
	}
	return f.client.do(req, "functions."+name)
}
