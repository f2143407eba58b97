package ast

import (
	"unsafe"
)

// Arena AST 节点的内存池
//
// 节点生命周期与整棵语法树一致，没有单独释放的需求，所以统一从
// 大块内存里指针递增式分配，解析结束后整体 Reset 或 Free。
// Parser 是单线程的，不加锁。
type Arena struct {
	chunks    [][]byte
	offset    int // 最后一块的分配偏移
	chunkSize int
}

// 默认块大小 64KB
const defaultChunkSize = 64 * 1024

// NewArena 创建分配器，chunkSize <= 0 时取默认值
func NewArena(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	a.grow(chunkSize)
	return a
}

// Alloc 分配 size 字节，按 align 对齐。align 必须是 2 的幂。
func (a *Arena) Alloc(size, align int) unsafe.Pointer {
	cur := a.chunks[len(a.chunks)-1]
	offset := (a.offset + align - 1) &^ (align - 1)

	if offset+size > len(cur) {
		a.grow(size)
		cur = a.chunks[len(a.chunks)-1]
		offset = 0
	}

	a.offset = offset + size
	return unsafe.Pointer(&cur[offset])
}

// AllocType 类型化分配
//
//	node := AllocType[IntegerLiteral](arena)
func AllocType[T any](a *Arena) *T {
	var zero T
	p := a.Alloc(int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)))
	return (*T)(p)
}

func (a *Arena) grow(size int) {
	if size < a.chunkSize {
		size = a.chunkSize
	}
	a.chunks = append(a.chunks, make([]byte, size))
	a.offset = 0
}

// Reset 丢弃已分配节点，保留第一块内存复用
//
// REPL 逐轮解析时调用，之前取得的节点指针全部失效。
func (a *Arena) Reset() {
	if len(a.chunks) > 1 {
		a.chunks = a.chunks[:1]
	}
	a.offset = 0
}

// Free 释放全部内存
func (a *Arena) Free() {
	a.chunks = nil
	a.offset = 0
}

// ArenaStats 调试用统计
type ArenaStats struct {
	ChunkCount int
	TotalBytes int
	UsedBytes  int
}

// Stats 汇总当前内存占用
func (a *Arena) Stats() ArenaStats {
	var s ArenaStats
	s.ChunkCount = len(a.chunks)
	for _, c := range a.chunks {
		s.TotalBytes += len(c)
		s.UsedBytes += len(c)
	}
	if n := len(a.chunks); n > 0 {
		s.UsedBytes += a.offset - len(a.chunks[n-1])
	}
	return s
}
