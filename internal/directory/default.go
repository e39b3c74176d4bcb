package directory

// defaultEntries seeds mention detection when no directory file is
// configured: large-cap issuers that appear frequently in narrative
// sections as customers, suppliers, or competitors.
var defaultEntries = []Entry{
	{CIK: "320193", Ticker: "AAPL", Name: "Apple Inc."},
	{CIK: "789019", Ticker: "MSFT", Name: "Microsoft Corporation"},
	{CIK: "1652044", Ticker: "GOOGL", Name: "Alphabet Inc.", Aliases: []string{"Google"}},
	{CIK: "1018724", Ticker: "AMZN", Name: "Amazon.com, Inc.", Aliases: []string{"Amazon", "Amazon Web Services", "AWS"}},
	{CIK: "1045810", Ticker: "NVDA", Name: "NVIDIA Corporation"},
	{CIK: "1326801", Ticker: "META", Name: "Meta Platforms, Inc.", Aliases: []string{"Facebook"}},
	{CIK: "1318605", Ticker: "TSLA", Name: "Tesla, Inc."},
	{CIK: "1046179", Ticker: "TSM", Name: "Taiwan Semiconductor Manufacturing Company", Aliases: []string{"TSMC"}},
	{CIK: "50863", Ticker: "INTC", Name: "Intel Corporation"},
	{CIK: "804328", Ticker: "QCOM", Name: "QUALCOMM Incorporated", Aliases: []string{"Qualcomm"}},
	{CIK: "2488", Ticker: "AMD", Name: "Advanced Micro Devices, Inc.", Aliases: []string{"AMD"}},
	{CIK: "1730168", Ticker: "AVGO", Name: "Broadcom Inc."},
	{CIK: "723125", Ticker: "MU", Name: "Micron Technology, Inc."},
	{CIK: "1108524", Ticker: "CRM", Name: "Salesforce, Inc."},
	{CIK: "796343", Ticker: "ADBE", Name: "Adobe Inc."},
	{CIK: "1341439", Ticker: "ORCL", Name: "Oracle Corporation"},
	{CIK: "51143", Ticker: "IBM", Name: "International Business Machines Corporation", Aliases: []string{"IBM"}},
	{CIK: "858877", Ticker: "CSCO", Name: "Cisco Systems, Inc."},
	{CIK: "97476", Ticker: "TXN", Name: "Texas Instruments Incorporated"},
	{CIK: "40545", Ticker: "GE", Name: "General Electric Company"},
	{CIK: "12927", Ticker: "BA", Name: "The Boeing Company", Aliases: []string{"Boeing"}},
	{CIK: "19617", Ticker: "JPM", Name: "JPMorgan Chase & Co.", Aliases: []string{"JPMorgan", "J.P. Morgan"}},
	{CIK: "70858", Ticker: "BAC", Name: "Bank of America Corporation"},
	{CIK: "886982", Ticker: "GS", Name: "The Goldman Sachs Group, Inc.", Aliases: []string{"Goldman Sachs"}},
	{CIK: "104169", Ticker: "WMT", Name: "Walmart Inc.", Aliases: []string{"Wal-Mart"}},
	{CIK: "27419", Ticker: "TGT", Name: "Target Corporation"},
	{CIK: "909832", Ticker: "COST", Name: "Costco Wholesale Corporation"},
	{CIK: "1065280", Ticker: "NFLX", Name: "Netflix, Inc."},
	{CIK: "731766", Ticker: "UNH", Name: "UnitedHealth Group Incorporated"},
	{CIK: "78003", Ticker: "PFE", Name: "Pfizer Inc."},
	{CIK: "200406", Ticker: "JNJ", Name: "Johnson & Johnson"},
	{CIK: "34088", Ticker: "XOM", Name: "Exxon Mobil Corporation", Aliases: []string{"ExxonMobil"}},
	{CIK: "93410", Ticker: "CVX", Name: "Chevron Corporation"},
	{CIK: "21344", Ticker: "KO", Name: "The Coca-Cola Company", Aliases: []string{"Coca-Cola"}},
	{CIK: "77476", Ticker: "PEP", Name: "PepsiCo, Inc."},
	{CIK: "320187", Ticker: "NKE", Name: "NIKE, Inc."},
	{CIK: "354950", Ticker: "HD", Name: "The Home Depot, Inc.", Aliases: []string{"Home Depot"}},
	{CIK: "63908", Ticker: "MCD", Name: "McDonald's Corporation"},
	{CIK: "1467373", Ticker: "ACN", Name: "Accenture plc"},
	{CIK: "1090727", Ticker: "UPS", Name: "United Parcel Service, Inc.", Aliases: []string{"UPS"}},
	{CIK: "1048911", Ticker: "FDX", Name: "FedEx Corporation"},
}

// Default returns the built-in company directory.
func Default() *Directory {
	return New(defaultEntries)
}
