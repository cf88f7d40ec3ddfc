package gql

import (
	"uttt-node/node/history"
)

type resolver struct {
	historySvc *history.HistorySvc
}
