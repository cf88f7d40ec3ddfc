package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type data struct {
	name   string
	length uint
}

func TestLruCacheSvc(t *testing.T) {
	svc := NewLruCacheSvc()

	require.NoError(t, svc.CreateCache("keys1", 3))
	require.NoError(t, svc.CreateCache("keys2", 2))
	require.Error(t, svc.CreateCache("keys1", 3))

	svc.Put("keys1", "aaa", &data{name: "aaa", length: 100})
	svc.Put("keys1", "bbb", &data{name: "bbb", length: 200})
	svc.Put("keys1", "ccc", &data{name: "ccc", length: 300})

	got, err := svc.Get("keys1", "aaa")
	require.NoError(t, err)
	require.Equal(t, "aaa", got.(*data).name)

	got, err = svc.Get("keys1", "ccc")
	require.NoError(t, err)
	require.Equal(t, "ccc", got.(*data).name)

	// "bbb" is now least recently used and falls out
	svc.Put("keys1", "ddd", &data{name: "ddd", length: 400})

	got, err = svc.Get("keys1", "ddd")
	require.NoError(t, err)
	require.Equal(t, "ddd", got.(*data).name)

	require.Equal(t, 3, svc.GetSize("keys1"))
	require.Equal(t, 3, svc.GetCapacity("keys1"))

	got, err = svc.Get("keys1", "bbb")
	require.NoError(t, err)
	require.Nil(t, got)

	svc.Put("keys2", "eee", &data{name: "eee", length: 200})
	svc.Put("keys2", "fff", &data{name: "fff", length: 300})
	svc.Put("keys2", "ggg", &data{name: "ggg", length: 300})
	svc.Put("keys2", "hhh", &data{name: "hhh", length: 300})

	require.Equal(t, 2, svc.GetCapacity("keys2"))

	svc.Evict("keys2", "hhh")
	require.Equal(t, 1, svc.GetSize("keys2"))

	got, err = svc.Get("keys2", "eee")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = svc.Get("keys2", "ggg")
	require.NoError(t, err)
	require.Equal(t, "ggg", got.(*data).name)
}

func TestLruKeysOrder(t *testing.T) {
	c := CreateLruCache(10)
	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3)

	require.Equal(t, []string{"a", "b", "c"}, c.keys())

	// touching "a" moves it to the most recent end
	require.Equal(t, 1, c.get("a"))
	require.Equal(t, []string{"b", "c", "a"}, c.keys())

	c.evict("c")
	require.Equal(t, []string{"b", "a"}, c.keys())
}

func TestLruReSizeShrinksOldestFirst(t *testing.T) {
	svc := NewLruCacheSvc()
	require.NoError(t, svc.CreateCache("resize", 5))

	for _, k := range []string{"1", "2", "3", "4", "5"} {
		svc.Put("resize", k, k)
	}

	require.NoError(t, svc.ReSize("resize", 2))
	require.Equal(t, 2, svc.GetSize("resize"))
	require.Equal(t, []string{"4", "5"}, svc.Keys("resize"))
}
