// quote_burst fires concurrent guest quote requests at a running storefront
// to check the quote_request sentinel rule: with the default 5 QPS most of
// the burst should come back 429.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

var (
	baseURL = flag.String("url", "http://localhost:8080", "storefront base URL")
	total   = flag.Int("n", 50, "number of concurrent requests")
)

type result struct {
	mu       sync.Mutex
	created  int
	limited  int
	rejected map[int]int
}

func (r *result) record(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch status {
	case http.StatusCreated:
		r.created++
	case http.StatusTooManyRequests:
		r.limited++
	default:
		r.rejected[status]++
	}
}

// requestQuote 发起单个询价请求
func requestQuote(client *http.Client, i int, res *result, wg *sync.WaitGroup) {
	defer wg.Done()

	body, _ := json.Marshal(map[string]any{
		"customerName": fmt.Sprintf("Load Tester %d", i),
		"email":        fmt.Sprintf("load+%d@example.com", i),
		"items": []map[string]any{
			{"productName": "Burst test pallet", "quantity": 1 + i%5},
		},
	})
	req, _ := http.NewRequest(http.MethodPost, *baseURL+"/api/v1/quotes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("[#%d] 请求失败: %v\n", i, err)
		res.record(0)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	res.record(resp.StatusCode)
}

func main() {
	flag.Parse()
	fmt.Printf("开始询价压测: %d 个并发请求 -> %s\n", *total, *baseURL)

	client := &http.Client{Timeout: 5 * time.Second}
	res := &result{rejected: map[int]int{}}
	var wg sync.WaitGroup
	wg.Add(*total)

	start := time.Now()
	for i := 0; i < *total; i++ {
		go requestQuote(client, i, res, &wg)
	}
	wg.Wait()

	fmt.Printf("耗时: %v\n", time.Since(start))
	fmt.Printf("created (201): %d\n", res.created)
	fmt.Printf("rate limited (429): %d\n", res.limited)
	for status, n := range res.rejected {
		fmt.Printf("other (%d): %d\n", status, n)
	}
}
