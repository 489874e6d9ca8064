/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package loop

import (
	"sync/atomic"
)

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// mailbox is a multi-producer single-consumer FIFO queue.
// reference: https://concurrencyfreaks.blogspot.com/2014/04/multi-producer-single-consumer-queue.html
type mailbox[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   *node[T]
	length atomic.Int64
}

func newMailbox[T any]() *mailbox[T] {
	stub := new(node[T])
	m := &mailbox[T]{tail: stub}
	m.head.Store(stub)
	return m
}

// push appends a value. Safe for concurrent producers.
func (m *mailbox[T]) push(value T) {
	n := &node[T]{value: value}
	previous := m.head.Swap(n)
	previous.next.Store(n)
	m.length.Add(1)
}

// pop removes the oldest value. Must only be called by the consumer.
func (m *mailbox[T]) pop() (T, bool) {
	var zero T
	next := m.tail.next.Load()
	if next == nil {
		return zero, false
	}
	m.tail = next
	value := next.value
	next.value = zero
	m.length.Add(-1)
	return value, true
}

func (m *mailbox[T]) len() int64 {
	return m.length.Load()
}
