package taxonomy

// Built-in enterprise ATT&CK reference tables. This is the fixed enumeration
// the engine validates against when no STIX bundle is present; `threatlens
// update` replaces it with the full upstream bundle.

var builtinTactics = []Tactic{
	{ID: "TA0043", Name: "Reconnaissance", ShortName: "reconnaissance"},
	{ID: "TA0042", Name: "Resource Development", ShortName: "resource-development"},
	{ID: "TA0001", Name: "Initial Access", ShortName: "initial-access"},
	{ID: "TA0002", Name: "Execution", ShortName: "execution"},
	{ID: "TA0003", Name: "Persistence", ShortName: "persistence"},
	{ID: "TA0004", Name: "Privilege Escalation", ShortName: "privilege-escalation"},
	{ID: "TA0005", Name: "Defense Evasion", ShortName: "defense-evasion"},
	{ID: "TA0006", Name: "Credential Access", ShortName: "credential-access"},
	{ID: "TA0007", Name: "Discovery", ShortName: "discovery"},
	{ID: "TA0008", Name: "Lateral Movement", ShortName: "lateral-movement"},
	{ID: "TA0009", Name: "Collection", ShortName: "collection"},
	{ID: "TA0011", Name: "Command and Control", ShortName: "command-and-control"},
	{ID: "TA0010", Name: "Exfiltration", ShortName: "exfiltration"},
	{ID: "TA0040", Name: "Impact", ShortName: "impact"},
}

var builtinTechniques = []Technique{
	// Initial Access
	{ID: "T1190", Name: "Exploit Public-Facing Application", TacticIDs: []string{"TA0001"}},
	{ID: "T1566", Name: "Phishing", TacticIDs: []string{"TA0001"}},
	{ID: "T1566.001", Name: "Spearphishing Attachment", TacticIDs: []string{"TA0001"}},
	{ID: "T1566.002", Name: "Spearphishing Link", TacticIDs: []string{"TA0001"}},
	{ID: "T1078", Name: "Valid Accounts", TacticIDs: []string{"TA0001", "TA0003", "TA0004", "TA0005"}},

	// Execution
	{ID: "T1059", Name: "Command and Scripting Interpreter", TacticIDs: []string{"TA0002"}},
	{ID: "T1059.001", Name: "PowerShell", TacticIDs: []string{"TA0002"}},
	{ID: "T1059.003", Name: "Windows Command Shell", TacticIDs: []string{"TA0002"}},
	{ID: "T1059.005", Name: "Visual Basic", TacticIDs: []string{"TA0002"}},
	{ID: "T1059.006", Name: "Python", TacticIDs: []string{"TA0002"}},
	{ID: "T1047", Name: "Windows Management Instrumentation", TacticIDs: []string{"TA0002"}},
	{ID: "T1053", Name: "Scheduled Task/Job", TacticIDs: []string{"TA0002", "TA0003", "TA0004"}},
	{ID: "T1053.005", Name: "Scheduled Task", TacticIDs: []string{"TA0002", "TA0003", "TA0004"}},
	{ID: "T1204", Name: "User Execution", TacticIDs: []string{"TA0002"}},
	{ID: "T1204.002", Name: "Malicious File", TacticIDs: []string{"TA0002"}},

	// Persistence / Privilege Escalation
	{ID: "T1547", Name: "Boot or Logon Autostart Execution", TacticIDs: []string{"TA0003", "TA0004"}},
	{ID: "T1547.001", Name: "Registry Run Keys / Startup Folder", TacticIDs: []string{"TA0003", "TA0004"}},
	{ID: "T1543", Name: "Create or Modify System Process", TacticIDs: []string{"TA0003", "TA0004"}},
	{ID: "T1543.003", Name: "Windows Service", TacticIDs: []string{"TA0003", "TA0004"}},
	{ID: "T1055", Name: "Process Injection", TacticIDs: []string{"TA0004", "TA0005"}},
	{ID: "T1068", Name: "Exploitation for Privilege Escalation", TacticIDs: []string{"TA0004"}},

	// Defense Evasion
	{ID: "T1027", Name: "Obfuscated Files or Information", TacticIDs: []string{"TA0005"}},
	{ID: "T1140", Name: "Deobfuscate/Decode Files or Information", TacticIDs: []string{"TA0005"}},
	{ID: "T1070", Name: "Indicator Removal", TacticIDs: []string{"TA0005"}},
	{ID: "T1070.004", Name: "File Deletion", TacticIDs: []string{"TA0005"}},
	{ID: "T1112", Name: "Modify Registry", TacticIDs: []string{"TA0005"}},
	{ID: "T1218", Name: "System Binary Proxy Execution", TacticIDs: []string{"TA0005"}},
	{ID: "T1218.011", Name: "Rundll32", TacticIDs: []string{"TA0005"}},
	{ID: "T1497", Name: "Virtualization/Sandbox Evasion", TacticIDs: []string{"TA0005", "TA0007"}},

	// Credential Access
	{ID: "T1003", Name: "OS Credential Dumping", TacticIDs: []string{"TA0006"}},
	{ID: "T1003.001", Name: "LSASS Memory", TacticIDs: []string{"TA0006"}},
	{ID: "T1110", Name: "Brute Force", TacticIDs: []string{"TA0006"}},
	{ID: "T1555", Name: "Credentials from Password Stores", TacticIDs: []string{"TA0006"}},
	{ID: "T1552", Name: "Unsecured Credentials", TacticIDs: []string{"TA0006"}},
	{ID: "T1552.001", Name: "Credentials In Files", TacticIDs: []string{"TA0006"}},
	{ID: "T1056", Name: "Input Capture", TacticIDs: []string{"TA0006", "TA0009"}},
	{ID: "T1056.001", Name: "Keylogging", TacticIDs: []string{"TA0006", "TA0009"}},

	// Discovery
	{ID: "T1082", Name: "System Information Discovery", TacticIDs: []string{"TA0007"}},
	{ID: "T1083", Name: "File and Directory Discovery", TacticIDs: []string{"TA0007"}},
	{ID: "T1046", Name: "Network Service Discovery", TacticIDs: []string{"TA0007"}},
	{ID: "T1057", Name: "Process Discovery", TacticIDs: []string{"TA0007"}},

	// Lateral Movement
	{ID: "T1021", Name: "Remote Services", TacticIDs: []string{"TA0008"}},
	{ID: "T1021.001", Name: "Remote Desktop Protocol", TacticIDs: []string{"TA0008"}},
	{ID: "T1021.002", Name: "SMB/Windows Admin Shares", TacticIDs: []string{"TA0008"}},
	{ID: "T1570", Name: "Lateral Tool Transfer", TacticIDs: []string{"TA0008"}},

	// Collection
	{ID: "T1005", Name: "Data from Local System", TacticIDs: []string{"TA0009"}},
	{ID: "T1113", Name: "Screen Capture", TacticIDs: []string{"TA0009"}},
	{ID: "T1114", Name: "Email Collection", TacticIDs: []string{"TA0009"}},
	{ID: "T1560", Name: "Archive Collected Data", TacticIDs: []string{"TA0009"}},

	// Command and Control
	{ID: "T1071", Name: "Application Layer Protocol", TacticIDs: []string{"TA0011"}},
	{ID: "T1071.001", Name: "Web Protocols", TacticIDs: []string{"TA0011"}},
	{ID: "T1105", Name: "Ingress Tool Transfer", TacticIDs: []string{"TA0011"}},
	{ID: "T1573", Name: "Encrypted Channel", TacticIDs: []string{"TA0011"}},
	{ID: "T1090", Name: "Proxy", TacticIDs: []string{"TA0011"}},

	// Exfiltration
	{ID: "T1041", Name: "Exfiltration Over C2 Channel", TacticIDs: []string{"TA0010"}},
	{ID: "T1567", Name: "Exfiltration Over Web Service", TacticIDs: []string{"TA0010"}},

	// Impact
	{ID: "T1486", Name: "Data Encrypted for Impact", TacticIDs: []string{"TA0040"}},
	{ID: "T1489", Name: "Service Stop", TacticIDs: []string{"TA0040"}},
	{ID: "T1490", Name: "Inhibit System Recovery", TacticIDs: []string{"TA0040"}},
	{ID: "T1485", Name: "Data Destruction", TacticIDs: []string{"TA0040"}},
}
