// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/companion-network/cnu/api/utils"
	"github.com/companion-network/cnu/eventdb"
)

const defaultLimit = 1000

type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB) *Events {
	return &Events{db, defaultLimit}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Offset: 0, Limit: e.limit}
	} else if filter.Options.Limit > e.limit {
		return utils.Forbidden(errors.New("options.limit exceeds the maximum allowed value"))
	}
	found, err := e.db.FilterEvents(req.Context(), &filter)
	if err != nil {
		return err
	}
	if found == nil {
		found = []*eventdb.Event{}
	}
	return utils.WriteJSON(w, found)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
