package extract

// Surface-form patterns per technique, beyond the technique's own name and
// id. Drawn from the phrasing threat reports actually use. Every key must
// resolve in the taxonomy; NewRuleSet rejects the table otherwise.
var surfaceForms = map[string][]string{
	"T1566":     {`phishing (campaign|email|lure)`},
	"T1566.001": {`spear.?phishing attachment`, `malicious (email )?attachment`, `weaponized (document|attachment)`},
	"T1566.002": {`spear.?phishing link`, `malicious link`},
	"T1190":     {`exploit(ed|ing|s)? (a |an )?(public.facing|internet.facing|exposed) (application|server|service)`},
	"T1078":     {`(stolen|compromised|valid) (account|credential)s?`},

	"T1059.001": {`powershell`, `encoded powershell`},
	"T1059.003": {`cmd\.exe`, `command prompt`},
	"T1059.005": {`vbscript`, `visual basic script`},
	"T1059.006": {`python (script|payload|loader)`},
	"T1047":     {`\bwmi\b`, `wmic\.exe`},
	"T1053.005": {`schtasks`, `scheduled task`},
	"T1204.002": {`(opened|executed|launched) (the|a) (malicious )?(document|attachment|file)`},

	"T1547.001": {`run key`, `registry run`, `startup folder`},
	"T1543.003": {`(installed|created|registered) (a |itself as a )?(windows )?service`},
	"T1055":     {`process (injection|hollowing)`, `inject(ed|s|ing)? (code |itself )?into`},
	"T1068":     {`privilege escalation exploit`, `escalat(e|ed|ing) privileges`},

	"T1027":     {`obfuscat(ed|ion)`, `packed (binary|payload|sample)`},
	"T1140":     {`deobfuscat(e|ed|ion)`, `decod(e|ed|ing) (the )?payload`},
	"T1070.004": {`delet(e|ed|ing) (its |the )?(files?|artifacts?|traces?)`, `wiped? (the )?logs?`},
	"T1112":     {`modif(y|ied|ies) (the )?registry`},
	"T1218.011": {`rundll32`},
	"T1497":     {`(sandbox|vm|virtual machine) (detection|evasion|check)`, `anti.(vm|sandbox|analysis)`},

	"T1003":     {`credential dumping`, `dump(ed|s|ing)? credentials`},
	"T1003.001": {`lsass`, `mimikatz`},
	"T1110":     {`brute.?forc(e|ed|ing)`, `password spray(ing)?`},
	"T1555":     {`(harvest|steal)(ed|s|ing)? (browser |stored )?passwords`},
	"T1552.001": {`credentials (stored |found )?in (files|plain.?text)`},
	"T1056.001": {`keylogg(er|ing)`, `captur(e|ed|ing) keystrokes`},

	"T1082":     {`system information discovery`, `fingerprint(ed|ing)? the (host|system)`},
	"T1083":     {`enumerat(e|ed|ing) (files|directories)`},
	"T1046":     {`(network|port) scan(ning|ned)?`},
	"T1057":     {`enumerat(e|ed|ing) (running )?processes`},

	"T1021.001": {`\brdp\b`, `remote desktop`},
	"T1021.002": {`\bsmb\b`, `admin(istrative)? shares?`, `psexec`},
	"T1570":     {`lateral(ly)? (movement|moved|tool transfer)`},

	"T1005":     {`(collect|stag)(ed|s|ing)? (local |sensitive )?(data|files|documents)`},
	"T1113":     {`screen(shot|.capture)s?`},
	"T1114":     {`(harvest|collect)(ed|s|ing)? email`},
	"T1560":     {`(compressed|archived) (the )?(stolen |collected )?data`, `\brar\b archive`},

	"T1071.001": {`https? (beacon|c2|command.and.control)`, `communicat(e|ed|ing|es) (with the C2 )?over https?`},
	"T1105":     {`download(ed|s|er|ing)? (an? )?(additional |second.stage |next.stage )?(payload|module|tool)`, `drop(ped|s|per)? (an? )?(additional )?payload`},
	"T1573":     {`encrypted (channel|communication|c2|traffic)`},
	"T1090":     {`proxy (server|chain|infrastructure)`},

	"T1041":     {`exfiltrat(e|ed|ion|ing).{0,40}c2`, `data (was )?exfiltrated`},
	"T1567":     {`exfiltrat(e|ed|ion|ing).{0,40}(cloud|web service|mega|dropbox)`},

	"T1486":     {`ransomware`, `encrypt(ed|s|ing) (the )?(victim.s )?(files|data|systems)`},
	"T1489":     {`stopp(ed|ing) (critical |database )?services`},
	"T1490":     {`(deleted|removed) (volume )?shadow copies`, `vssadmin`},
	"T1485":     {`wip(e|ed|er|ing)`, `destroy(ed|ing)? data`},
}
