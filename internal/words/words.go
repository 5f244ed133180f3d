package words

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
)

//go:embed words.json
var wordsJSON []byte

// wordFile words.json 的结构，每个词条是一组可接受的同义词
type wordFile struct {
	Nouns [][]string `json:"nouns"`
}

// List 词库，每个秘密词是一个同义词集合，集合内任意一个都算猜中
type List struct {
	nouns [][]string
}

// Load 解析内嵌词库
func Load() (*List, error) {
	var f wordFile
	if err := json.Unmarshal(wordsJSON, &f); err != nil {
		return nil, fmt.Errorf("解析词库失败: %w", err)
	}
	if len(f.Nouns) == 0 {
		return nil, fmt.Errorf("词库为空")
	}
	for i, syns := range f.Nouns {
		if len(syns) == 0 {
			return nil, fmt.Errorf("词库第 %d 条没有同义词", i)
		}
	}
	return &List{nouns: f.Nouns}, nil
}

// MustLoad 解析内嵌词库，失败时 panic（词库是编译期内嵌的，失败属于程序错误）
func MustLoad() *List {
	l, err := Load()
	if err != nil {
		panic(err)
	}
	return l
}

// Random 随机返回一组同义词，返回副本以防调用方修改词库
func (l *List) Random() []string {
	syns := l.nouns[rand.Intn(len(l.nouns))]
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}

// Len 词条数量
func (l *List) Len() int {
	return len(l.nouns)
}
