package store

import "fmt"

// loadFactorWarning is the keys-per-bucket ratio above which Explain warns
const loadFactorWarning = 4.0

// ExplainResult describes how keys are spread over the table
type ExplainResult struct {
	Global struct {
		TotalKeys    int     `json:"total_keys"`
		Buckets      int     `json:"buckets"`
		EmptyBuckets int     `json:"empty_buckets"`
		LongestChain int     `json:"longest_chain"`
		LoadFactor   float64 `json:"load_factor"`
	} `json:"global"`

	// Families counts keys by hashing family ("text" or "int").
	Families map[string]int `json:"families"`

	// Chains lists the non-empty buckets.
	Chains []BucketStats `json:"chains"`

	Warnings []string `json:"warnings,omitempty"`
}

// BucketStats holds the chain length of one bucket
type BucketStats struct {
	Bucket int `json:"bucket"`
	Length int `json:"length"`
}

// Explain gathers distribution stats for the table
func (t *Table) Explain() *ExplainResult {
	res := &ExplainResult{
		Families: map[string]int{
			TextKey.String(): 0,
			IntKey.String():  0,
		},
	}
	res.Global.TotalKeys = t.Len()
	res.Global.Buckets = t.Size()

	t.Walk(func(bucket int, chain []Entry) {
		if len(chain) == 0 {
			res.Global.EmptyBuckets++
			return
		}
		if len(chain) > res.Global.LongestChain {
			res.Global.LongestChain = len(chain)
		}
		res.Chains = append(res.Chains, BucketStats{Bucket: bucket, Length: len(chain)})
		for _, e := range chain {
			res.Families[FamilyOf(e.Key).String()]++
		}
	})

	res.Global.LoadFactor = float64(res.Global.TotalKeys) / float64(res.Global.Buckets)
	if res.Global.LoadFactor > loadFactorWarning {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("load factor %.2f, a larger table would shorten chains", res.Global.LoadFactor))
	}

	return res
}
