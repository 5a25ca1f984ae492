package kitchen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const defaultHttpTimeout = 60 * time.Second
const defaultHttpConnectTimeout = 5 * time.Second
const defaultHttpTlsTimeout = 5 * time.Second

func defaultClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHttpTimeout,
	}
}

type apiCallback[R any] interface {
	Result(result R, err error)
}

// for internal use
type simpleApiCallback[R any] struct {
	callback func(result R, err error)
}

func NewApiCallback[R any](callback func(result R, err error)) apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: callback,
	}
}

func NewNoopApiCallback[R any]() apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: func(result R, err error) {},
	}
}

func (self *simpleApiCallback[R]) Result(result R, err error) {
	self.callback(result, err)
}

type ApiCallbackResult[R any] struct {
	Result R
	Error  error
}

func NewBlockingApiCallback[R any]() (apiCallback[R], chan ApiCallbackResult[R]) {
	c := make(chan ApiCallbackResult[R])
	apiCallback := NewApiCallback[R](func(result R, err error) {
		c <- ApiCallbackResult[R]{
			Result: result,
			Error:  err,
		}
	})
	return apiCallback, c
}

// KitchenApi is the request/response side of the backend: the one-shot
// authoritative snapshot of active orders. The call is logically a query
// despite the POST verb; the body is an empty object.
type KitchenApi struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiUrl string

	byJwt string
}

func NewKitchenApi(apiUrl string) *KitchenApi {
	return NewKitchenApiWithContext(context.Background(), apiUrl)
}

func NewKitchenApiWithContext(ctx context.Context, apiUrl string) *KitchenApi {
	cancelCtx, cancel := context.WithCancel(ctx)

	return &KitchenApi{
		ctx:    cancelCtx,
		cancel: cancel,
		apiUrl: apiUrl,
	}
}

// this gets attached to api calls that need it
func (self *KitchenApi) SetByJwt(byJwt string) {
	self.byJwt = byJwt
}

type ActiveOrdersCallback = apiCallback[[]Order]

type ActiveOrdersArgs struct {
}

// ActiveOrders fetches the full active-order snapshot. Failure is non-fatal:
// the caller's previous collection is left untouched and the error delivered
// through the callback.
func (self *KitchenApi) ActiveOrders(callback ActiveOrdersCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%s/orders/active", self.apiUrl),
		&ActiveOrdersArgs{},
		self.byJwt,
		[]Order{},
		callback,
	)
}

// ActiveOrdersSync is the blocking variant, for callers that are not on an
// event loop.
func (self *KitchenApi) ActiveOrdersSync() ([]Order, error) {
	callback, c := NewBlockingApiCallback[[]Order]()
	self.ActiveOrders(callback)
	select {
	case result := <-c:
		return result.Result, result.Error
	case <-self.ctx.Done():
		return nil, errors.New("Api closed.")
	}
}

func (self *KitchenApi) Close() {
	self.cancel()
}

func post[A any, R any](ctx context.Context, url string, args A, byJwt string, result R, callback apiCallback[R]) (R, error) {
	requestBodyBytes, err := json.Marshal(args)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(requestBodyBytes))
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req.Header.Add("Content-Type", "text/json")

	if byJwt != "" {
		auth := fmt.Sprintf("Bearer %s", byJwt)
		req.Header.Add("Authorization", auth)
	}

	client := defaultClient()
	r, err := client.Do(req)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)

	if http.StatusOK != r.StatusCode {
		// the response body is the error message
		errorMessage := strings.TrimSpace(string(responseBodyBytes))
		err = errors.New(errorMessage)
		callback.Result(result, err)
		return result, err
	}

	if err != nil {
		callback.Result(result, err)
		return result, err
	}

	err = json.Unmarshal(responseBodyBytes, &result)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	callback.Result(result, nil)
	return result, nil
}
