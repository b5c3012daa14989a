// Package session keeps per-login caches of computed compliance results.
// A cache lives as long as the JWT session that created it and is thrown
// away on logout or expiry.
package session

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"fleet_tracker/internal/wtd"
)

// Key identifies one driver's analysis for one calendar day.
type Key struct {
	DriverID uint
	Date     string
}

// KeyFor builds the cache key for the day containing t.
func KeyFor(driverID uint, t time.Time) Key {
	return Key{DriverID: driverID, Date: t.Format(time.DateOnly)}
}

// Cache holds compliance analyses for one session.
type Cache struct {
	lru *lru.Cache[Key, wtd.ComplianceAnalysis]
}

// NewCache returns a cache holding up to size analyses.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[Key, wtd.ComplianceAnalysis](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Cache{lru: c}
}

func (c *Cache) Get(k Key) (wtd.ComplianceAnalysis, bool) {
	return c.lru.Get(k)
}

func (c *Cache) Put(k Key, a wtd.ComplianceAnalysis) {
	c.lru.Add(k, a)
}

// Invalidate drops the cached analysis for the driver's day.
func (c *Cache) Invalidate(k Key) {
	c.lru.Remove(k)
}

// InvalidateDriver drops every cached analysis of driverID.
func (c *Cache) InvalidateDriver(driverID uint) {
	for _, k := range c.lru.Keys() {
		if k.DriverID == driverID {
			c.lru.Remove(k)
		}
	}
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
