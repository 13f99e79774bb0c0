// Package harness checks that queries compile to the broker requests a
// suite expects.
//
// # Suite Format
//
// Suites are YAML files with the following structure:
//
//	name: suite_name
//	description: "What this suite validates"
//	normalize_hybrid_tables: false
//	cases:
//	  - name: group_order
//	    query: SELECT count(*) FROM t GROUP BY a, b
//	    expect_file: requests/group_order.json
//	  - name: top_differs
//	    query: SELECT count(*) FROM t GROUP BY a TOP 5
//	    equivalent: false
//	    expect:
//	      query_type: {has_aggregation: true, has_group_by: true}
//	      query_source: {table_name: t}
//	      ...
//
// Unknown fields are rejected. Each case names exactly one of expect and
// expect_file. expect_file may be JSON, YAML or CUE and is resolved against
// the suite file's directory. equivalent defaults to true.
//
// # Verdicts
//
// A case passes when the comparator's verdict matches equivalent and no
// error occurred. Filter and having trees are never compared; they are
// listed as uncovered on every case.
//
// # Usage
//
//	suite, err := harness.LoadSuite("testdata/suites/smoke.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, suite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, err := range result.Failures() {
//	    log.Println(err)
//	}
package harness
