package saccr

import (
	"regexp"
)

// commodityBucketMapping maps a SIMM commodity bucket number (as returned by
// the BucketMapper collaborator) onto the four SA-CCR commodity hedging sets.
// Grounded on OREAnalytics' commodityBucketMapping table (saccr.cpp).
var commodityBucketMapping = map[string]string{
	"1": "Energy", "2": "Energy", "3": "Energy", "4": "Energy",
	"5": "Energy", "6": "Energy", "7": "Energy", "8": "Energy",
	"9": "Energy", "11": "Metal", "12": "Metal", "13": "Agriculture",
	"14": "Agriculture", "15": "Agriculture", "16": "Other", "10": "Other",
}

// commodityQualifierMapping collapses regional SIMM qualifiers into the
// coarser groupings used as hedging subsets, grounded on OREAnalytics'
// commodityQualifierMapping table (saccr.cpp).
var commodityQualifierMapping = map[string]string{
	"Coal Americas": "Coal", "Coal Europe": "Coal", "Coal Africa": "Coal", "Coal Australia": "Coal",
	"Crude oil Americas": "Crude oil", "Crude oil Europe": "Crude oil", "Crude oil Asia/Middle East": "Crude oil",
	"Light Ends Americas": "Light Ends", "Light Ends Europe": "Light Ends", "Light Ends Asia": "Light Ends",
	"Middle Distillates Americas": "Middle Distillates", "Middle Distillates Europe": "Middle Distillates", "Middle Distillates Asia": "Middle Distillates",
	"Heavy Distillates Americas": "Heavy Distillates", "Heavy Distillates Europe": "Heavy Distillates", "Heavy Distillates Asia": "Heavy Distillates",
	"NA Natural Gas Gulf Coast": "Natural Gas", "NA Natural Gas North East": "Natural Gas", "NA Natural Gas West": "Natural Gas", "EU Natural Gas Europe": "Natural Gas",
	"NA Power Eastern Interconnect": "Power", "NA Power ERCOT": "Power", "NA Power Western Interconnect": "Power",
	"EU Power Germany": "Power", "EU Power UK": "Power",
}

var (
	commodityExpiryYMD = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	commodityExpiryYM  = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

const commodityPrefix = "COMM-"

// commodityName strips the "COMM-" prefix (unless withPrefix) and a trailing
// "-YYYY-MM-DD" or "-YYYY-MM" expiry suffix from a raw commodity underlying
// name. Grounded on SACCR::getCommodityName (saccr.cpp).
func commodityName(index string, withPrefix bool) string {
	name := index
	if !withPrefix {
		if len(name) >= len(commodityPrefix) && name[:len(commodityPrefix)] == commodityPrefix {
			name = name[len(commodityPrefix):]
		}
	}

	if len(name) > 10 {
		tail := name[len(name)-10:]
		if commodityExpiryYMD.MatchString(tail) {
			return name[:len(name)-11]
		}
	}
	if len(name) > 7 {
		tail := name[len(name)-7:]
		if commodityExpiryYM.MatchString(tail) {
			return name[:len(name)-8]
		}
	}
	return name
}

// commodityHedgingSubset resolves the SIMM qualifier for a raw commodity name
// and collapses it through commodityQualifierMapping when the qualifier is a
// member of a regional grouping. Grounded on SACCR::getCommodityHedgingSubset.
func commodityHedgingSubset(nameMapper interface {
	Qualifier(string) (string, error)
}, comm string) (string, error) {
	qualifier, err := nameMapper.Qualifier(commodityName(comm, false))
	if err != nil {
		return "", err
	}
	if collapsed, ok := commodityQualifierMapping[qualifier]; ok {
		return collapsed, nil
	}
	return qualifier, nil
}

// commodityHedgingSet resolves the SIMM qualifier, looks up its bucket
// number, and maps that bucket onto one of {Energy, Metal, Agriculture,
// Other}. Grounded on SACCR::getCommodityHedgingSet.
func commodityHedgingSet(
	nameMapper interface {
		Qualifier(string) (string, error)
	},
	bucketMapper interface {
		Bucket(riskType, qualifier string) (string, error)
	},
	comm string,
) (string, error) {
	qualifier, err := nameMapper.Qualifier(commodityName(comm, false))
	if err != nil {
		return "", err
	}
	bucket, err := bucketMapper.Bucket("Commodity", qualifier)
	if err != nil {
		return "", err
	}
	if hs, ok := commodityBucketMapping[bucket]; ok {
		return hs, nil
	}
	return "Other", nil
}
