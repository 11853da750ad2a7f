package util

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
)

// NormalizeEmail trims and lowercases an email address
// NormalizeEmail 去除空白并转为小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeTagName trims and lowercases a tag name
// NormalizeTagName 去除空白并转为小写
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LikeEscapeChar escape character for LIKE patterns
// LikeEscapeChar LIKE 模式的转义字符
const LikeEscapeChar = "!"

// EscapeLike escapes LIKE wildcards, to be used with ESCAPE '!'
// EscapeLike 转义 LIKE 通配符，配合 ESCAPE '!' 使用
func EscapeLike(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(s)
}

// ParseIDList parses "1,2, 3" into ids, skipping blanks and invalid entries, keeping first occurrence order
// ParseIDList 解析 "1,2, 3" 为 ID 列表，跳过空白与非法项，保持首次出现顺序
func ParseIDList(s string) []int64 {
	var ids []int64
	seen := map[int64]struct{}{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// UniqueIDs removes duplicates and non-positive ids, keeping order
// UniqueIDs 去重并移除非正数 ID，保持顺序
func UniqueIDs(in []int64) []int64 {
	out := make([]int64, 0, len(in))
	seen := make(map[int64]struct{}, len(in))
	for _, id := range in {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GetRandomString returns a random hex string of the given length
// GetRandomString 生成指定长度的随机十六进制字符串
func GetRandomString(length int) string {
	b := make([]byte, (length+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)[:length]
}
