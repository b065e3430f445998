package metarelay

import (
	rcommon "github.com/everFinance/metarelay/common"
)

var log = rcommon.NewLog("metarelay")
