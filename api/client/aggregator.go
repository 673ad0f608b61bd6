package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gnosisguild/enclave-aggregator/api"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/storage"
	"github.com/gnosisguild/enclave-aggregator/types"
)

// do performs the request and decodes a 200 response into out. Any other
// status is decoded and returned as an api.Error.
func (c *HTTPclient) do(method string, body any, out any, params []string, urlPath ...string) error {
	data, status, err := c.Request(method, body, params, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		apiErr := api.Error{HTTPstatus: status}
		if err := json.Unmarshal(data, &apiErr); err != nil {
			return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}
	return nil
}

// Layouts returns the parameter set and layouts served.
func (c *HTTPclient) Layouts() (*api.Layouts, error) {
	res := &api.Layouts{}
	if err := c.do(HTTPGET, nil, res, nil, api.LayoutsEndpoint); err != nil {
		return nil, err
	}
	return res, nil
}

// Wrap submits the proofs of a family for the E3.
func (c *HTTPclient) Wrap(e3ID *types.E3ID, req *api.WrapRequest) (*api.WrapResponse, error) {
	res := &api.WrapResponse{}
	if err := c.do(HTTPPOST, req, res, nil, "e3s", e3ID.String(), "wrap"); err != nil {
		return nil, err
	}
	return res, nil
}

// Outputs returns the outputs of a family for the E3.
func (c *HTTPclient) Outputs(e3ID *types.E3ID, family layout.Family) ([]*storage.StoredOutput, error) {
	res := &api.Outputs{}
	params := []string{api.FamilyURLParam, family.String()}
	if err := c.do(HTTPGET, nil, res, params, "e3s", e3ID.String(), "outputs"); err != nil {
		return nil, err
	}
	return res.Outputs, nil
}

// Root returns the fold root of a family for the E3.
func (c *HTTPclient) Root(e3ID *types.E3ID, family layout.Family) (*storage.StoredOutput, error) {
	res := &storage.StoredOutput{}
	params := []string{api.FamilyURLParam, family.String()}
	if err := c.do(HTTPGET, nil, res, params, "e3s", e3ID.String(), "root"); err != nil {
		return nil, err
	}
	return res, nil
}

// RegistryProof returns the registry inclusion proof of an output.
func (c *HTTPclient) RegistryProof(e3ID *types.E3ID, family layout.Family, index uint64) (*storage.RegistryProof, error) {
	res := &storage.RegistryProof{}
	params := []string{api.FamilyURLParam, family.String()}
	idx := strconv.FormatUint(index, 10)
	if err := c.do(HTTPGET, nil, res, params, "e3s", e3ID.String(), "outputs", idx, "proof"); err != nil {
		return nil, err
	}
	return res, nil
}
