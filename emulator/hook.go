/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package emulator

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tomoncle/tuplestore/client"
	"github.com/uptrace/bun"
)

const slowQueryEnv = "BUN_SLOW_QUERY"

var (
	slowLabel = color.New(color.FgYellow, color.Bold).SprintFunc()
	slowQuery = color.New(color.BgYellow, color.FgHiWhite).SprintFunc()
)

// slowQueryHook warns about queries running longer than slowTime. Setting
// BUN_SLOW_QUERY=0 silences it.
type slowQueryHook struct {
	slowTime time.Duration
	logger   client.Logger
}

var _ bun.QueryHook = (*slowQueryHook)(nil)

func newSlowQueryHook(slowTime time.Duration, logger client.Logger) *slowQueryHook {
	return &slowQueryHook{slowTime: slowTime, logger: logger}
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil {
		return
	}
	if env, ok := os.LookupEnv(slowQueryEnv); ok && strings.TrimSpace(env) == "0" {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.slowTime {
		return
	}
	h.logger.Warn(slowLabel("[BUN_SLOW]")+" "+slowQuery(event.Query),
		"operation", event.Operation(),
		"latency", duration.Round(time.Microsecond).String(),
	)
}
