package block

import "github.com/colstride/colex/colexerr"

var errShortTable = colexerr.Corrupt("block.StrTableDecoder.ReadHeader", nil)
