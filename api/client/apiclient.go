package apiclient

import (
	"context"
	"net/http"

	"uttt-node/api"

	"github.com/filecoin-project/go-jsonrpc"
)

const (
	namespace = "Uttt"
)

func NewNodeApi(ctx context.Context, address string, token string) (api.UtttApi, jsonrpc.ClientCloser, error) {
	var res api.UtttApiStruct

	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+string(token))

	closer, err := jsonrpc.NewMergeClient(ctx, address, namespace, api.GetInternalStructs(&res), headers)
	return &res, closer, err
}
