// Package jobxredis implements the jobx backend on Redis. Ready tasks live
// on a list per queue, delayed tasks in a sorted set scored by their due
// time, and the task body in a plain key.
package jobxredis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Abraxas-365/academy/pkg/jobx"
	"github.com/redis/go-redis/v9"
)

type RedisBackend struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisBackend creates the backend. Finished task bodies are kept for
// ttl so the admin surface can inspect recent outcomes; zero keeps them
// forever.
func NewRedisBackend(rdb *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{rdb: rdb, ttl: ttl}
}

func readyKey(queue string) string   { return fmt.Sprintf("jobx:ready:%s", queue) }
func delayedKey(queue string) string { return fmt.Sprintf("jobx:delayed:%s", queue) }
func taskKey(id string) string       { return fmt.Sprintf("jobx:task:%s", id) }

func (b *RedisBackend) Push(ctx context.Context, task *jobx.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return jobx.ErrRegistry.NewWithCause(jobx.CodeInvalidTask, err)
	}

	pipe := b.rdb.Pipeline()
	pipe.Set(ctx, taskKey(task.ID), data, 0)
	pipe.LPush(ctx, readyKey(task.Queue), task.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return backendErr(err, "push", task.Queue)
	}
	return nil
}

func (b *RedisBackend) PushDelayed(ctx context.Context, task *jobx.Task, delay time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return jobx.ErrRegistry.NewWithCause(jobx.CodeInvalidTask, err)
	}

	due := float64(time.Now().UTC().Add(delay).Unix())

	pipe := b.rdb.Pipeline()
	pipe.Set(ctx, taskKey(task.ID), data, 0)
	pipe.ZAdd(ctx, delayedKey(task.Queue), redis.Z{Score: due, Member: task.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return backendErr(err, "push_delayed", task.Queue)
	}
	return nil
}

func (b *RedisBackend) Pull(ctx context.Context, queues []string, timeout time.Duration) (*jobx.Task, error) {
	keys := make([]string, len(queues))
	for i, q := range queues {
		keys[i] = readyKey(q)
	}

	res, err := b.rdb.BRPop(ctx, timeout, keys...).Result()
	if err != nil {
		if err == redis.Nil || ctx.Err() != nil {
			return nil, nil
		}
		return nil, backendErr(err, "pull", "")
	}

	task, err := b.Find(ctx, res[1])
	if err != nil {
		return nil, err
	}

	task.State = jobx.StateRunning
	task.Attempts++
	task.UpdatedAt = time.Now().UTC()
	if err := b.store(ctx, task, 0); err != nil {
		return nil, err
	}
	return task, nil
}

func (b *RedisBackend) MarkDone(ctx context.Context, id string) error {
	task, err := b.Find(ctx, id)
	if err != nil {
		return err
	}
	task.State = jobx.StateDone
	task.UpdatedAt = time.Now().UTC()
	return b.store(ctx, task, b.ttl)
}

func (b *RedisBackend) MarkFailed(ctx context.Context, id string, reason string) (bool, error) {
	task, err := b.Find(ctx, id)
	if err != nil {
		return false, err
	}

	retry := task.Attempts < task.MaxAttempts
	if retry {
		task.State = jobx.StateRetrying
	} else {
		task.State = jobx.StateFailed
	}
	task.Error = reason
	task.UpdatedAt = time.Now().UTC()

	ttl := time.Duration(0)
	if !retry {
		ttl = b.ttl
	}
	if err := b.store(ctx, task, ttl); err != nil {
		return false, err
	}
	return retry, nil
}

func (b *RedisBackend) Reschedule(ctx context.Context, id string, delay time.Duration) error {
	task, err := b.Find(ctx, id)
	if err != nil {
		return err
	}

	due := float64(time.Now().UTC().Add(delay).Unix())
	if err := b.rdb.ZAdd(ctx, delayedKey(task.Queue), redis.Z{Score: due, Member: id}).Err(); err != nil {
		return backendErr(err, "reschedule", task.Queue)
	}
	return nil
}

// promoteScript moves every due task from the delayed set to the ready
// list atomically, so a task is never both delayed and ready.
var promoteScript = redis.NewScript(`
local delayed = KEYS[1]
local ready = KEYS[2]
local now = tonumber(ARGV[1])
local ids = redis.call('ZRANGEBYSCORE', delayed, '-inf', now)
if #ids > 0 then
    for _, id in ipairs(ids) do
        redis.call('LPUSH', ready, id)
    end
    redis.call('ZREMRANGEBYSCORE', delayed, '-inf', now)
end
return #ids
`)

func (b *RedisBackend) Promote(ctx context.Context, queues []string) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)

	for _, q := range queues {
		err := promoteScript.Run(ctx, b.rdb, []string{delayedKey(q), readyKey(q)}, now).Err()
		if err != nil && err != redis.Nil {
			return backendErr(err, "promote", q)
		}
	}
	return nil
}

func (b *RedisBackend) Find(ctx context.Context, id string) (*jobx.Task, error) {
	data, err := b.rdb.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, jobx.ErrRegistry.New(jobx.CodeNotFound).WithDetail("task_id", id)
		}
		return nil, backendErr(err, "find", "")
	}

	var task jobx.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, jobx.ErrRegistry.NewWithCause(jobx.CodeInvalidTask, err).WithDetail("task_id", id)
	}
	return &task, nil
}

func (b *RedisBackend) store(ctx context.Context, task *jobx.Task, ttl time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return jobx.ErrRegistry.NewWithCause(jobx.CodeInvalidTask, err)
	}
	if err := b.rdb.Set(ctx, taskKey(task.ID), data, ttl).Err(); err != nil {
		return backendErr(err, "store", task.Queue)
	}
	return nil
}

func backendErr(err error, op, queue string) error {
	e := jobx.ErrRegistry.NewWithCause(jobx.CodeBackendFailure, err).WithDetail("op", op)
	if queue != "" {
		e = e.WithDetail("queue", queue)
	}
	return e
}
