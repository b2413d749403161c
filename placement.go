package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/valyala/fasthttp"
)

// MonCommander issues one administrative command against the cluster
// monitor. The request and reply are JSON documents; any transport
// failure is fatal for the calling operation.
type MonCommander interface {
	MonCommand(cmd []byte) ([]byte, error)
}

// httpMonClient POSTs commands to an HTTP JSON admin endpoint.
type httpMonClient struct {
	url    string
	client *fasthttp.Client
}

func newHTTPMonClient(url string) *httpMonClient {
	return &httpMonClient{
		url:    url,
		client: &fasthttp.Client{},
	}
}

func (c *httpMonClient) MonCommand(cmd []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.url)
	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/json")
	req.SetBody(cmd)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	if err := c.client.Do(req, resp); err != nil {
		return nil, adminErrorf("mon command transport: %v", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, adminErrorf("mon command status %d", resp.StatusCode())
	}
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// One request/reply struct pair per command, so malformed replies fail at
// the boundary instead of deep in the grouping loop.

type osdMapCmd struct {
	Prefix string `json:"prefix"`
	Object string `json:"object"`
	Pool   string `json:"pool"`
	Format string `json:"format"`
}

type osdMapReply struct {
	ActingPrimary *int `json:"acting_primary"`
}

type osdFindCmd struct {
	Prefix string `json:"prefix"`
	ID     int    `json:"id"`
	Format string `json:"format"`
}

type osdFindReply struct {
	CrushLocation map[string]string `json:"crush_location"`
}

type pgLsByPoolCmd struct {
	Prefix  string `json:"prefix"`
	PoolStr string `json:"poolstr"`
	Format  string `json:"format"`
}

type pgStat struct {
	ActingPrimary *int `json:"acting_primary"`
}

type pgLsByPoolReply struct {
	PgStats []pgStat `json:"pg_stats"`
}

type osdPoolGetCmd struct {
	Prefix string `json:"prefix"`
	Pool   string `json:"pool"`
	Var    string `json:"var"`
	Format string `json:"format"`
}

type osdPoolGetReply struct {
	Size *uint `json:"size"`
}

// PlacementResolver maps logical object names to physical locations via
// the cluster administrative interface.
type PlacementResolver struct {
	mon MonCommander
}

func newPlacementResolver(mon MonCommander) *PlacementResolver {
	return &PlacementResolver{mon: mon}
}

func (r *PlacementResolver) command(cmd, reply interface{}) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return adminErrorf("encode mon command: %v", err)
	}
	out, err := r.mon.MonCommand(body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, reply); err != nil {
		return adminErrorf("parse mon reply: %v", err)
	}
	return nil
}

// PoolSize returns the replication factor of pool.
func (r *PlacementResolver) PoolSize(pool string) (uint, error) {
	var reply osdPoolGetReply
	err := r.command(osdPoolGetCmd{Prefix: "osd pool get", Pool: pool, Var: "size", Format: "json"}, &reply)
	if err != nil {
		return 0, err
	}
	if reply.Size == nil {
		return 0, adminErrorf("pool get reply has no size")
	}
	return *reply.Size, nil
}

// OSDs returns the distinct daemons currently acting primary for at least
// one placement group in pool, in ascending order.
func (r *PlacementResolver) OSDs(pool string) ([]int, error) {
	var reply pgLsByPoolReply
	err := r.command(pgLsByPoolCmd{Prefix: "pg ls-by-pool", PoolStr: pool, Format: "json"}, &reply)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	for _, pg := range reply.PgStats {
		if pg.ActingPrimary == nil || *pg.ActingPrimary < 0 {
			continue
		}
		seen[*pg.ActingPrimary] = true
	}
	osds := make([]int, 0, len(seen))
	for osd := range seen {
		osds = append(osds, osd)
	}
	sort.Ints(osds)
	return osds, nil
}

// Location returns the topology attribute map of a daemon, with a
// synthetic "osd" key naming the daemon itself.
func (r *PlacementResolver) Location(osd int) (map[string]string, error) {
	var reply osdFindReply
	err := r.command(osdFindCmd{Prefix: "osd find", ID: osd, Format: "json"}, &reply)
	if err != nil {
		return nil, err
	}
	location := make(map[string]string, len(reply.CrushLocation)+1)
	for k, v := range reply.CrushLocation {
		location[k] = v
	}
	location["osd"] = fmt.Sprintf("osd.%d", osd)
	return location, nil
}

// ActingPrimary resolves which daemon would own object in pool. The
// object does not have to exist.
func (r *PlacementResolver) ActingPrimary(object, pool string) (int, error) {
	var reply osdMapReply
	err := r.command(osdMapCmd{Prefix: "osd map", Object: object, Pool: pool, Format: "json"}, &reply)
	if err != nil {
		return 0, err
	}
	if reply.ActingPrimary == nil {
		return 0, adminErrorf("osd map reply has no acting_primary")
	}
	return *reply.ActingPrimary, nil
}

const (
	namePrefix     = "bench_"
	namesPerThread = 16
	maxNameProbes  = 1000000
)

// GroupNames synthesizes object names until every wanted failure domain
// holds exactly threads*namesPerThread names guaranteed to land on it.
// groupBy selects the topology attribute ("host", "osd", ...); specific,
// when non-empty, restricts the search to that one domain value.
func (r *PlacementResolver) GroupNames(pool, groupBy, specific string, threads int) (map[string][]string, error) {
	osds, err := r.OSDs(pool)
	if err != nil {
		return nil, err
	}

	osd2location := make(map[int]map[string]string)
	wanted := make(map[string]bool)
	for _, osd := range osds {
		location, err := r.Location(osd)
		if err != nil {
			return nil, err
		}
		osd2location[osd] = location
		item, ok := location[groupBy]
		if !ok {
			return nil, adminErrorf("osd.%d location has no %q attribute", osd, groupBy)
		}
		if specific == "" || item == specific {
			wanted[item] = true
		}
	}
	if len(wanted) == 0 {
		return nil, configErrorf("no %s matches %q in pool %q", groupBy, specific, pool)
	}

	capacity := threads * namesPerThread
	groups := make(map[string][]string)
	for cnt := 1; len(wanted) > 0; cnt++ {
		if cnt > maxNameProbes {
			return nil, adminErrorf("gave up finding names after %d probes", maxNameProbes)
		}
		name := fmt.Sprintf("%s%d", namePrefix, cnt)
		osd, err := r.ActingPrimary(name, pool)
		if err != nil {
			return nil, err
		}
		location, ok := osd2location[osd]
		if !ok {
			continue
		}
		item := location[groupBy]
		if !wanted[item] {
			continue
		}
		if len(groups[item]) >= capacity {
			delete(wanted, item)
			continue
		}
		groups[item] = append(groups[item], name)
	}
	return groups, nil
}
