package optional

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kristofer/gravity/pkg/value"
)

// NewHttpClass builds the Http static class: get/post grounded on
// gravity_http.c's libcurl-backed request helpers, reimplemented over
// net/http since Go's standard client already covers the original's
// synchronous request/response model.
func NewHttpClass(h Host) *value.Class {
	cls := value.NewClass("Http", h.ObjectSuper())
	client := &http.Client{Timeout: 30 * time.Second}

	respond := func(c setter, rindex uint32, h Host, resp *http.Response, err error) {
		if err != nil {
			c.Set(rindex, value.Null())
			return
		}
		defer resp.Body.Close()
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			c.Set(rindex, value.Null())
			return
		}
		m := h.NewMap()
		m.Table.Set(value.Obj(h.NewString("status")), value.Int(int64(resp.StatusCode)))
		m.Table.Set(value.Obj(h.NewString("body")), value.Obj(h.NewString(string(body))))
		c.Set(rindex, value.Obj(m))
	}

	cls.Meta.Methods["get"] = value.Obj(value.NewInternalFunctionN("get", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		resp, err := client.Get(argString(args, 1))
		respond(c, rindex, h, resp, err)
		return true
	}, 1))

	cls.Meta.Methods["post"] = value.Obj(value.NewInternalFunctionN("post", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		contentType := "application/octet-stream"
		if len(args) > 3 {
			contentType = argString(args, 3)
		}
		resp, err := client.Post(argString(args, 1), contentType, strings.NewReader(argString(args, 2)))
		respond(c, rindex, h, resp, err)
		return true
	}, 3))

	return cls
}
