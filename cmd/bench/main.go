// bench - flexjson codec benchmark runner
//
// Compares the registered codecs, plain and zstd-compressed, on a corpus of
// flex values:
//   - Bytes on wire
//   - Encode and decode time per value
//
// The corpus is every *.json file in the directory given as the first
// argument, or a built-in synthetic corpus when no directory is given.
// Output: CSV on stdout and a markdown summary (bench_results.md).
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Neumenon/flexjson/codec"
	"github.com/Neumenon/flexjson/flex"
)

type Case struct {
	Name  string
	Value flex.Value
}

type CaseResult struct {
	Case     string
	Codec    string
	Bytes    int
	JSONPct  float64 // size relative to plain JSON
	EncodeNs int64
	DecodeNs int64
}

const rounds = 200

func main() {
	var cases []Case
	var err error
	if len(os.Args) > 1 {
		cases, err = loadCorpus(os.Args[1])
	} else {
		cases = syntheticCorpus()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot load corpus: %v\n", err)
		os.Exit(1)
	}
	if len(cases) == 0 {
		fmt.Fprintln(os.Stderr, "Corpus is empty")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "flexjson Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "=========================\n")
	fmt.Fprintf(os.Stderr, "Cases: %d, codecs: %v (+zstd)\n\n", len(cases), codec.Names())

	codecs, closeAll, err := buildCodecs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot build codecs: %v\n", err)
		os.Exit(1)
	}
	defer closeAll()

	var results []CaseResult
	for _, c := range cases {
		jsonBytes := 0
		for _, nc := range codecs {
			r, err := measure(c, nc.name, nc.codec)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Skip %s/%s: %v\n", c.Name, nc.name, err)
				continue
			}
			if nc.name == "json" {
				jsonBytes = r.Bytes
			}
			if jsonBytes > 0 {
				r.JSONPct = float64(r.Bytes) / float64(jsonBytes) * 100.0
			}
			results = append(results, r)
		}
	}

	writeCSV(os.Stdout, results)

	mdPath := "bench_results.md"
	mdFile, err := os.Create(mdPath)
	if err == nil {
		writeMarkdown(mdFile, results, len(cases))
		mdFile.Close()
		fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", mdPath)
	}
}

type namedCodec struct {
	name  string
	codec codec.Codec[flex.Value]
}

// buildCodecs returns every registered codec, each also wrapped in zstd.
// json comes first so that the other sizes can be expressed relative to it.
func buildCodecs() ([]namedCodec, func(), error) {
	names := codec.Names()
	sort.SliceStable(names, func(i, j int) bool { return names[i] == "json" && names[j] != "json" })

	var out []namedCodec
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	for _, name := range names {
		inner, err := codec.ByName(name)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		z, err := codec.NewZstd(inner, 3)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, z.Close)
		out = append(out, namedCodec{name, inner}, namedCodec{name + "+zstd", z})
	}
	return out, closeAll, nil
}

func measure(c Case, name string, cd codec.Codec[flex.Value]) (CaseResult, error) {
	data, err := cd.Encode(c.Value)
	if err != nil {
		return CaseResult{}, err
	}
	if _, err := cd.Decode(data); err != nil {
		return CaseResult{}, err
	}

	start := time.Now()
	for i := 0; i < rounds; i++ {
		_, _ = cd.Encode(c.Value)
	}
	encNs := time.Since(start).Nanoseconds() / rounds

	start = time.Now()
	for i := 0; i < rounds; i++ {
		_, _ = cd.Decode(data)
	}
	decNs := time.Since(start).Nanoseconds() / rounds

	return CaseResult{
		Case:     c.Name,
		Codec:    name,
		Bytes:    len(data),
		EncodeNs: encNs,
		DecodeNs: decNs,
	}, nil
}

func loadCorpus(dir string) ([]Case, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var cases []Case
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", p, err)
			continue
		}
		v, err := flex.Decode(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: parse error: %v\n", p, err)
			continue
		}
		cases = append(cases, Case{Name: strings.TrimSuffix(filepath.Base(p), ".json"), Value: v})
	}
	return cases, nil
}

// syntheticCorpus builds values that exercise each variant at a few sizes.
func syntheticCorpus() []Case {
	embedding := func(n int) flex.Value {
		vec := make([]float64, n)
		for i := range vec {
			vec[i] = math.Sin(float64(i)) * 0.5
		}
		return flex.Vector(vec...)
	}

	records := make([]flex.Value, 100)
	for i := range records {
		records[i] = flex.Dict(map[string]flex.Value{
			"id":     flex.Integer(int64(i)),
			"name":   flex.String(fmt.Sprintf("item_%d", i)),
			"score":  flex.Float(float64(i) / 7),
			"active": flex.Integer(int64(i % 2)),
			"tags":   flex.List(flex.String("a"), flex.String("b")),
		})
	}

	series := make([]flex.Value, 100)
	for i := range series {
		series[i] = flex.List(
			flex.DateTimeValue(flex.DateTime{EpochSeconds: 1457136000 + int64(i)*60, OffsetQuarterHours: -28, HasOffset: true}),
			flex.Float(20+math.Cos(float64(i))),
		)
	}

	return []Case{
		{"scalar_int", flex.Integer(1 << 40)},
		{"scalar_string", flex.String(strings.Repeat("flex ", 40))},
		{"embedding_128", embedding(128)},
		{"embedding_1536", embedding(1536)},
		{"records_100", flex.List(records...)},
		{"timeseries_100", flex.List(series...)},
		{"special_floats", flex.List(flex.Float(math.NaN()), flex.Float(math.Inf(1)), flex.Float(math.Inf(-1)), flex.Float(math.Copysign(0, -1)))},
	}
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "case,codec,bytes,json_pct,encode_ns,decode_ns")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%s,%d,%.1f,%d,%d\n", r.Case, r.Codec, r.Bytes, r.JSONPct, r.EncodeNs, r.DecodeNs)
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, cases int) {
	fmt.Fprintf(w, "# flexjson Codec Benchmark\n\n")
	fmt.Fprintf(w, "**Cases:** %d  \n", cases)
	fmt.Fprintf(w, "**Rounds per measurement:** %d\n\n", rounds)

	// Totals per codec
	type total struct {
		bytes    int
		encodeNs int64
		decodeNs int64
	}
	totals := map[string]*total{}
	var order []string
	for _, r := range results {
		t, ok := totals[r.Codec]
		if !ok {
			t = &total{}
			totals[r.Codec] = t
			order = append(order, r.Codec)
		}
		t.bytes += r.Bytes
		t.encodeNs += r.EncodeNs
		t.decodeNs += r.DecodeNs
	}

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Codec | Bytes | vs JSON | Encode (ns) | Decode (ns) |\n")
	fmt.Fprintf(w, "|-------|-------|---------|-------------|-------------|\n")
	jsonTotal := 0
	if t, ok := totals["json"]; ok {
		jsonTotal = t.bytes
	}
	for _, name := range order {
		t := totals[name]
		pct := 0.0
		if jsonTotal > 0 {
			pct = float64(t.bytes) / float64(jsonTotal) * 100
		}
		fmt.Fprintf(w, "| %s | %d | %.1f%% | %d | %d |\n", name, t.bytes, pct, t.encodeNs, t.decodeNs)
	}

	fmt.Fprintf(w, "\n## Smallest Codec per Case\n\n")
	fmt.Fprintf(w, "| Case | Codec | Bytes | vs JSON |\n")
	fmt.Fprintf(w, "|------|-------|-------|---------|\n")
	best := map[string]CaseResult{}
	var caseOrder []string
	for _, r := range results {
		b, ok := best[r.Case]
		if !ok {
			caseOrder = append(caseOrder, r.Case)
		}
		if !ok || r.Bytes < b.Bytes {
			best[r.Case] = r
		}
	}
	for _, name := range caseOrder {
		r := best[name]
		fmt.Fprintf(w, "| %s | %s | %d | %.1f%% |\n", truncateName(r.Case, 25), r.Codec, r.Bytes, r.JSONPct)
	}

	fmt.Fprintf(w, "\n## Methodology\n\n")
	fmt.Fprintf(w, "- **json:** canonical flex JSON (`flex.Encode`)\n")
	fmt.Fprintf(w, "- **cbor / msgpack:** tagged envelope that keeps every variant\n")
	fmt.Fprintf(w, "- **+zstd:** the same bytes compressed with klauspost/compress zstd level 3\n")
	fmt.Fprintf(w, "- **Time:** mean wall time over %d rounds, single goroutine\n", rounds)
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
