package ecos

// Raw ECOS response shapes. The top-level key repeats the endpoint name.

type seriesBody struct {
	StatisticSearch struct {
		ListTotalCount int         `json:"list_total_count"`
		Row            []seriesRow `json:"row"`
	} `json:"StatisticSearch"`
}

type seriesRow struct {
	StatCode  string `json:"STAT_CODE"`
	StatName  string `json:"STAT_NAME"`
	ItemCode1 string `json:"ITEM_CODE1"`
	ItemName1 string `json:"ITEM_NAME1"`
	UnitName  string `json:"UNIT_NAME"`
	Time      string `json:"TIME"`
	DataValue string `json:"DATA_VALUE"`
}

type keyStatBody struct {
	KeyStatisticList struct {
		ListTotalCount int          `json:"list_total_count"`
		Row            []keyStatRow `json:"row"`
	} `json:"KeyStatisticList"`
}

type keyStatRow struct {
	ClassName   string `json:"CLASS_NAME"`
	KeyStatName string `json:"KEYSTAT_NAME"`
	DataValue   string `json:"DATA_VALUE"`
	Cycle       string `json:"CYCLE"`
	UnitName    string `json:"UNIT_NAME"`
}

type catalogBody struct {
	StatisticTableList struct {
		ListTotalCount int          `json:"list_total_count"`
		Row            []catalogRow `json:"row"`
	} `json:"StatisticTableList"`
}

type catalogRow struct {
	StatCode   string `json:"STAT_CODE"`
	StatName   string `json:"STAT_NAME"`
	Cycle      string `json:"CYCLE"`
	OrgName    string `json:"ORG_NAME"`
	SearchYN   string `json:"SRCH_YN"`
}
