package mockapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// User is the /users/me payload.
type User struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	SiteID   string `json:"site_id"`
}

// Item is a minimal listing.
type Item struct {
	ID                string  `json:"id"`
	SiteID            string  `json:"site_id"`
	Title             string  `json:"title"`
	Price             float64 `json:"price"`
	CurrencyID        string  `json:"currency_id"`
	AvailableQuantity int     `json:"available_quantity"`
	Status            string  `json:"status"`
	SellerID          int64   `json:"seller_id"`
}

var siteNames = map[string]string{
	"MLA": "Argentina",
	"MLB": "Brasil",
	"MCO": "Colombia",
	"MLM": "Mexico",
	"MLU": "Uruguay",
	"MLC": "Chile",
	"MLV": "Venezuela",
	"MPE": "Perú",
	"MEC": "Ecuador",
}

var siteCurrencies = map[string]string{
	"MLA": "ARS",
	"MLB": "BRL",
	"MCO": "COP",
	"MLM": "MXN",
	"MLU": "UYU",
	"MLC": "CLP",
	"MLV": "VES",
	"MPE": "PEN",
	"MEC": "USD",
}

// echoResponse reflects the request back to the caller.
type echoResponse struct {
	Result bool            `json:"result"`
	Method string          `json:"method"`
	Query  map[string]any  `json:"query"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// echoRequest implements ANY /test. It reports the method, query and JSON body it
// received.
func (*Server) echoRequest(c echo.Context) error {
	resp := echoResponse{
		Result: true,
		Method: c.Request().Method,
		Query:  map[string]any{},
	}
	for k, v := range c.QueryParams() {
		if len(v) == 1 {
			resp.Query[k] = v[0]
		} else {
			resp.Query[k] = v
		}
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "bad_request", "reading body")
	}
	if len(body) > 0 {
		if !json.Valid(body) {
			return writeError(c, http.StatusBadRequest, "bad_request", "body is not valid JSON")
		}
		resp.Body = body
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) me(c echo.Context) error {
	return c.JSON(http.StatusOK, User{ID: s.userID, Nickname: s.nickname, SiteID: s.siteID})
}

func (*Server) site(c echo.Context) error {
	id := strings.ToUpper(c.Param("site"))
	name, ok := siteNames[id]
	if !ok {
		return writeError(c, http.StatusNotFound, "not_found", fmt.Sprintf("Site %s not found", id))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"id":                  id,
		"name":                name,
		"default_currency_id": siteCurrencies[id],
	})
}

func (s *Server) createItem(c echo.Context) error {
	var item Item
	if err := json.NewDecoder(c.Request().Body).Decode(&item); err != nil {
		return writeError(c, http.StatusBadRequest, "bad_request", "body is not valid JSON")
	}
	if item.Title == "" {
		return c.JSON(http.StatusBadRequest, apiError{
			Message: "Validation error",
			Error:   "validation_error",
			Status:  http.StatusBadRequest,
			Cause: []any{map[string]string{
				"code":    "item.title.required",
				"message": "title is required",
			}},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	item.ID = fmt.Sprintf("%s%d", s.siteID, 1000000000+s.seq)
	item.SiteID = s.siteID
	item.SellerID = s.userID
	if item.CurrencyID == "" {
		item.CurrencyID = siteCurrencies[s.siteID]
	}
	if item.Status == "" {
		item.Status = "active"
	}
	s.items[item.ID] = item

	return c.JSON(http.StatusCreated, item)
}

func (s *Server) getItem(c echo.Context) error {
	s.mu.Lock()
	item, ok := s.items[c.Param("id")]
	s.mu.Unlock()

	if !ok {
		return itemNotFound(c)
	}
	return c.JSON(http.StatusOK, item)
}

// updateItem applies a partial update: only fields present in the body
// change.
func (s *Server) updateItem(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[c.Param("id")]
	if !ok {
		return itemNotFound(c)
	}

	id, seller, site := item.ID, item.SellerID, item.SiteID
	if err := json.NewDecoder(c.Request().Body).Decode(&item); err != nil {
		return writeError(c, http.StatusBadRequest, "bad_request", "body is not valid JSON")
	}
	item.ID, item.SellerID, item.SiteID = id, seller, site
	s.items[id] = item

	return c.JSON(http.StatusOK, item)
}

func (s *Server) deleteItem(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[c.Param("id")]
	if !ok {
		return itemNotFound(c)
	}
	item.Status = "closed"
	delete(s.items, item.ID)

	return c.JSON(http.StatusOK, item)
}

func itemNotFound(c echo.Context) error {
	return writeError(c, http.StatusNotFound, "not_found", fmt.Sprintf("Item with id %s not found", c.Param("id")))
}
